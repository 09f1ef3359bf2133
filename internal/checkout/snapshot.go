package checkout

import (
	"encoding/json"
	"strconv"

	"github.com/google/uuid"

	pkgerrors "github.com/dmarchetti/orchard-backend/pkg/errors"
	"github.com/dmarchetti/orchard-backend/pkg/types"
)

// snapshotVersion is bumped whenever the metadata layout changes. Decoding
// refuses unknown versions so a newer writer never gets silently
// misinterpreted by an older reader.
const snapshotVersion = "1"

const (
	metaKeyVersion       = "snapshot_version"
	metaKeyCustomerID    = "customer_id"
	metaKeyStockReserved = "stock_reserved"
	metaKeyDelivery      = "delivery"
	metaKeyItems         = "items"
)

// SnapshotItem is one cart line frozen at authorization time. These prices
// are what the customer was charged, so the later reconciliation must use
// them rather than the live catalog.
type SnapshotItem struct {
	ProductID      uuid.UUID `json:"product_id"`
	Title          string    `json:"title"`
	UnitPriceCents int       `json:"unit_price_cents"`
	Qty            int       `json:"qty"`
}

// Snapshot is the full checkout state carried through the payment
// processor's metadata and returned with the payment outcome.
type Snapshot struct {
	CustomerID    string
	StockReserved bool
	Delivery      types.DeliveryInfo
	Items         []SnapshotItem
}

// TotalCents recomputes the charged amount from the frozen lines.
func (s Snapshot) TotalCents() int {
	total := 0
	for _, item := range s.Items {
		total += item.UnitPriceCents * item.Qty
	}
	return total
}

// EncodeSnapshot renders the snapshot as processor metadata. Values are
// kept compact; Stripe caps each metadata value at 500 characters.
func EncodeSnapshot(s Snapshot) (map[string]string, error) {
	delivery, err := json.Marshal(s.Delivery)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding delivery snapshot")
	}
	items, err := json.Marshal(s.Items)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding item snapshot")
	}
	return map[string]string{
		metaKeyVersion:       snapshotVersion,
		metaKeyCustomerID:    s.CustomerID,
		metaKeyStockReserved: strconv.FormatBool(s.StockReserved),
		metaKeyDelivery:      string(delivery),
		metaKeyItems:         string(items),
	}, nil
}

// DecodeSnapshot parses processor metadata written by EncodeSnapshot.
func DecodeSnapshot(metadata map[string]string) (Snapshot, error) {
	if metadata[metaKeyVersion] != snapshotVersion {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "unsupported snapshot version")
	}
	customerID := metadata[metaKeyCustomerID]
	if customerID == "" {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "snapshot missing customer id")
	}

	snapshot := Snapshot{CustomerID: customerID}
	snapshot.StockReserved = metadata[metaKeyStockReserved] == "true"

	if raw := metadata[metaKeyDelivery]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &snapshot.Delivery); err != nil {
			return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decoding delivery snapshot")
		}
	}

	raw := metadata[metaKeyItems]
	if raw == "" {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "snapshot missing items")
	}
	if err := json.Unmarshal([]byte(raw), &snapshot.Items); err != nil {
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decoding item snapshot")
	}
	if len(snapshot.Items) == 0 {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "snapshot has no items")
	}
	return snapshot, nil
}
