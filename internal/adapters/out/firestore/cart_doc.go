// internal/adapters/out/firestore/cart_doc.go
package firestore

import (
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	cartdom "threadline/internal/domain/cart"
)

// cartDocSchemaVersion is written on every upsert. Readers accept exactly
// this version; anything else degrades to an empty cart (see repository).
const cartDocSchemaVersion = 2

// -----------------------------------------
// Firestore DTO
// -----------------------------------------
// NOTE: domain struct を直接 firestore DTO にしない（後方互換のため）

type cartDoc struct {
	SchemaVersion int `firestore:"schemaVersion"`

	Items        []cartItemDoc `firestore:"items"`
	DiscountCode string        `firestore:"discountCode,omitempty"`

	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
	ExpiresAt time.Time `firestore:"expiresAt"`
}

type cartItemDoc struct {
	ProductID     string `firestore:"productId"`
	VariantKey    string `firestore:"variantKey,omitempty"`
	ProductName   string `firestore:"productName"`
	Quantity      int    `firestore:"quantity"`
	UnitPrice     int    `firestore:"unitPrice"`
	ObservedStock int    `firestore:"observedStock"`
}

func cartDocFromDomain(l *cartdom.Ledger) cartDoc {
	items := make([]cartItemDoc, 0, len(l.Items))
	for _, it := range l.Items {
		pid := strings.TrimSpace(it.ProductID)
		if pid == "" || it.Quantity <= 0 {
			continue
		}
		items = append(items, cartItemDoc{
			ProductID:     pid,
			VariantKey:    strings.TrimSpace(it.VariantKey),
			ProductName:   strings.TrimSpace(it.ProductName),
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			ObservedStock: it.ObservedStock,
		})
	}

	return cartDoc{
		SchemaVersion: cartDocSchemaVersion,
		Items:         items,
		DiscountCode:  strings.TrimSpace(l.DiscountCode),
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
		ExpiresAt:     l.ExpiresAt,
	}
}

func (d cartDoc) toDomain() *cartdom.Ledger {
	items := make([]cartdom.LineItem, 0, len(d.Items))
	seen := map[string]struct{}{}
	for _, it := range d.Items {
		pid := strings.TrimSpace(it.ProductID)
		if pid == "" || it.Quantity <= 0 {
			continue
		}
		id := cartdom.Identity(pid, it.VariantKey)
		if _, dup := seen[id]; dup {
			// duplicate identity in a stored doc: keep the first row
			continue
		}
		seen[id] = struct{}{}
		items = append(items, cartdom.LineItem{
			ProductID:     pid,
			VariantKey:    strings.TrimSpace(it.VariantKey),
			ProductName:   strings.TrimSpace(it.ProductName),
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			ObservedStock: it.ObservedStock,
		})
	}

	return &cartdom.Ledger{
		Items:        items,
		DiscountCode: strings.TrimSpace(d.DiscountCode),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		ExpiresAt:    d.ExpiresAt,
	}
}

// cartDocFromSnapshot parses document data defensively.
// ok=false means the doc should be treated as "no cart".
func cartDocFromSnapshot(snap *firestore.DocumentSnapshot) (cartDoc, bool) {
	if snap == nil {
		return cartDoc{}, false
	}
	return cartDocFromData(snap.Data())
}

func cartDocFromData(raw map[string]any) (cartDoc, bool) {
	if raw == nil {
		return cartDoc{}, false
	}

	if asInt(raw["schemaVersion"]) != cartDocSchemaVersion {
		// pre-versioning blob or a future schema: unusable by contract
		return cartDoc{}, false
	}

	out := cartDoc{SchemaVersion: cartDocSchemaVersion}

	if tt, ok := asTime(raw["createdAt"]); ok {
		out.CreatedAt = tt
	}
	if tt, ok := asTime(raw["updatedAt"]); ok {
		out.UpdatedAt = tt
	}
	if tt, ok := asTime(raw["expiresAt"]); ok {
		out.ExpiresAt = tt
	}
	out.DiscountCode = strings.TrimSpace(asString(raw["discountCode"]))

	itemsAny, ok := raw["items"].([]any)
	if !ok {
		// versioned doc with a non-array items field: corrupt
		if raw["items"] != nil {
			return cartDoc{}, false
		}
		return out, true
	}

	for _, v := range itemsAny {
		mv, ok := v.(map[string]any)
		if !ok {
			continue
		}
		qty := asInt(mv["quantity"])
		pid := strings.TrimSpace(asString(mv["productId"]))
		if pid == "" || qty <= 0 {
			continue
		}
		out.Items = append(out.Items, cartItemDoc{
			ProductID:     pid,
			VariantKey:    strings.TrimSpace(asString(mv["variantKey"])),
			ProductName:   strings.TrimSpace(asString(mv["productName"])),
			Quantity:      qty,
			UnitPrice:     asInt(mv["unitPrice"]),
			ObservedStock: asInt(mv["observedStock"]),
		})
	}

	return out, true
}

// -----------------------------------------
// loose decoding helpers
// -----------------------------------------

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func asInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	case float64:
		return int(t)
	default:
		return 0
	}
}

func asTime(v any) (time.Time, bool) {
	if t, ok := v.(time.Time); ok {
		return t, true
	}
	return time.Time{}, false
}
