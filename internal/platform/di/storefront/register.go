// internal/platform/di/storefront/register.go
package storefront

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"

	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"

	"threadline/internal/domain/discount"
	"threadline/internal/platform/di/shared"
)

// defaultRates seed the rate table when DISCOUNT_RATES is not set.
var defaultRates = map[string]int{
	"WELCOME10": 10,
	"VIP20":     20,
}

// buildRates parses DISCOUNT_RATES ("CODE:percent,CODE:percent") with the
// built-in table as fallback. Unknown codes always price at 0%, so a bad
// entry here degrades pricing, never availability.
func buildRates() discount.RateLookup {
	raw := strings.TrimSpace(os.Getenv("DISCOUNT_RATES"))
	if raw == "" {
		return discount.NewStaticRates(defaultRates)
	}

	parsed := map[string]int{}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		code, pctStr, ok := strings.Cut(pair, ":")
		if !ok {
			log.Printf("[di.storefront] WARN: DISCOUNT_RATES entry %q malformed, skipping", pair)
			continue
		}
		pct, err := strconv.Atoi(strings.TrimSpace(pctStr))
		if err != nil {
			log.Printf("[di.storefront] WARN: DISCOUNT_RATES entry %q has non-numeric percent, skipping", pair)
			continue
		}
		parsed[strings.TrimSpace(code)] = pct
	}

	if len(parsed) == 0 {
		log.Printf("[di.storefront] WARN: DISCOUNT_RATES parsed to nothing, using defaults")
		return discount.NewStaticRates(defaultRates)
	}
	log.Printf("[di.storefront] discount rates loaded from env (%d codes)", len(parsed))
	return discount.NewStaticRates(parsed)
}

// resolveSendGridKey fetches the SendGrid API key from Secret Manager when
// SENDGRID_SECRET_NAME is set; otherwise the env-var fallback inside the
// mail package takes over.
func resolveSendGridKey(ctx context.Context, inf *shared.Infra) string {
	if inf == nil || inf.SecretManager == nil {
		return ""
	}
	secretID := strings.TrimSpace(inf.Config.SendGridSecretName)
	if secretID == "" {
		return ""
	}

	name := "projects/" + inf.ProjectID + "/secrets/" + secretID + "/versions/latest"
	resp, err := inf.SecretManager.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		log.Printf("[di.storefront] WARN: AccessSecretVersion failed (%s): %v (falling back to SENDGRID_API_KEY env)", name, err)
		return ""
	}
	if resp == nil || resp.Payload == nil {
		log.Printf("[di.storefront] WARN: empty secret payload (%s)", name)
		return ""
	}

	log.Printf("[di.storefront] SendGrid key resolved from Secret Manager (%s)", secretID)
	return strings.TrimSpace(string(resp.Payload.Data))
}
