package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopcuathuy/marketplace-api/internal/domain/order"
	"github.com/shopcuathuy/marketplace-api/internal/domain/shipment"
)

const (
	// order_id is unique; a re-run for an order that already has its
	// shipment is a no-op, which keeps retried SHIPPING transitions safe.
	createShipmentSQL = `INSERT INTO shipments (id, order_id, status, tracking_number, cod_amount,
		address, failure_reason, history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (order_id) DO NOTHING`

	getShipmentByIDSQL = `SELECT id, order_id, status, tracking_number, cod_amount,
		address, failure_reason, history, created_at, updated_at
		FROM shipments WHERE id = $1`

	// The event append and the status swap happen in one statement, so the
	// history can never disagree with the status column.
	updateShipmentStatusSQL = `UPDATE shipments
		SET status = $3,
		    history = history || $4::jsonb,
		    failure_reason = CASE WHEN $5 <> '' THEN $5 ELSE failure_reason END,
		    updated_at = now()
		WHERE id = $1 AND status = $2`
)

var _ shipment.Repository = (*ShipmentRepository)(nil)

// ShipmentRepository implements shipment.Repository backed by PostgreSQL.
// The tracking history lives in an append-only JSONB array.
type ShipmentRepository struct {
	pool *pgxpool.Pool
}

// NewShipmentRepository returns a ShipmentRepository that uses the given pool.
func NewShipmentRepository(pool *pgxpool.Pool) *ShipmentRepository {
	return &ShipmentRepository{pool: pool}
}

// Create persists a new shipment with its initial history.
func (r *ShipmentRepository) Create(ctx context.Context, s *shipment.Shipment) error {
	_, err := r.pool.Exec(ctx, createShipmentSQL,
		s.ID, s.OrderID, s.Status, s.TrackingNumber, s.CODAmount,
		encodeAddress(s.Address), string(s.FailureReason), encodeEvents(s.History),
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating shipment %q: %w", s.ID, err)
	}
	return nil
}

// GetByID returns a single shipment by its identifier, or
// shipment.ErrNotFound.
func (r *ShipmentRepository) GetByID(ctx context.Context, id string) (*shipment.Shipment, error) {
	rows, err := r.pool.Query(ctx, getShipmentByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting shipment %q: %w", id, err)
	}

	s, err := pgx.CollectExactlyOneRow(rows, scanShipment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shipment.ErrNotFound
		}
		return nil, fmt.Errorf("getting shipment %q: %w", id, err)
	}
	return &s, nil
}

// UpdateStatus performs a compare-and-swap on the status column while
// appending ev to the history. Returns order.ErrConflict when the persisted
// status no longer equals expected.
func (r *ShipmentRepository) UpdateStatus(ctx context.Context, id string, expected, next shipment.Status, ev shipment.Event) error {
	tag, err := r.pool.Exec(ctx, updateShipmentStatusSQL,
		id, expected, next, encodeEvent(ev), string(ev.FailureReason),
	)
	if err != nil {
		return fmt.Errorf("updating shipment %q status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrConflict
	}
	return nil
}

func scanShipment(row pgx.CollectableRow) (shipment.Shipment, error) {
	var (
		s             shipment.Shipment
		addressJSON   []byte
		historyJSON   []byte
		failureReason string
	)
	err := row.Scan(
		&s.ID, &s.OrderID, &s.Status, &s.TrackingNumber, &s.CODAmount,
		&addressJSON, &failureReason, &historyJSON,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return s, err
	}
	s.FailureReason = shipment.FailureReason(failureReason)

	if s.Address, err = decodeAddress(addressJSON); err != nil {
		return s, fmt.Errorf("decoding shipment address: %w", err)
	}
	if s.History, err = decodeEvents(historyJSON); err != nil {
		return s, fmt.Errorf("decoding shipment history: %w", err)
	}
	return s, nil
}

func encodeEvent(ev shipment.Event) []byte {
	var e jx.Encoder
	writeEvent(&e, ev)
	return e.Bytes()
}

func encodeEvents(events []shipment.Event) []byte {
	var e jx.Encoder
	e.Arr(func(e *jx.Encoder) {
		for _, ev := range events {
			writeEvent(e, ev)
		}
	})
	return e.Bytes()
}

func writeEvent(e *jx.Encoder, ev shipment.Event) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("status", func(e *jx.Encoder) { e.Str(string(ev.Status)) })
		e.Field("location", func(e *jx.Encoder) { e.Str(ev.Location) })
		e.Field("description", func(e *jx.Encoder) { e.Str(ev.Description) })
		e.Field("failure_reason", func(e *jx.Encoder) { e.Str(string(ev.FailureReason)) })
		e.Field("occurred_at", func(e *jx.Encoder) { e.Str(ev.OccurredAt.UTC().Format(time.RFC3339Nano)) })
	})
}

func decodeEvents(data []byte) ([]shipment.Event, error) {
	var events []shipment.Event
	d := jx.DecodeBytes(data)
	err := d.Arr(func(d *jx.Decoder) error {
		var ev shipment.Event
		err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "status":
				v, err := d.Str()
				ev.Status = shipment.Status(v)
				return err
			case "location":
				v, err := d.Str()
				ev.Location = v
				return err
			case "description":
				v, err := d.Str()
				ev.Description = v
				return err
			case "failure_reason":
				v, err := d.Str()
				ev.FailureReason = shipment.FailureReason(v)
				return err
			case "occurred_at":
				v, err := d.Str()
				if err != nil {
					return err
				}
				ev.OccurredAt, err = time.Parse(time.RFC3339Nano, v)
				return err
			default:
				return d.Skip()
			}
		})
		if err != nil {
			return err
		}
		events = append(events, ev)
		return nil
	})
	return events, err
}

func encodeAddress(a shipment.Address) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("name", func(e *jx.Encoder) { e.Str(a.Name) })
		e.Field("phone", func(e *jx.Encoder) { e.Str(a.Phone) })
		e.Field("street", func(e *jx.Encoder) { e.Str(a.Street) })
		e.Field("ward", func(e *jx.Encoder) { e.Str(a.Ward) })
		e.Field("district", func(e *jx.Encoder) { e.Str(a.District) })
		e.Field("province", func(e *jx.Encoder) { e.Str(a.Province) })
	})
	return e.Bytes()
}

func decodeAddress(data []byte) (shipment.Address, error) {
	var a shipment.Address
	d := jx.DecodeBytes(data)
	fields := map[string]*string{
		"name": &a.Name, "phone": &a.Phone, "street": &a.Street,
		"ward": &a.Ward, "district": &a.District, "province": &a.Province,
	}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		dst, ok := fields[key]
		if !ok {
			return d.Skip()
		}
		v, err := d.Str()
		*dst = v
		return err
	})
	return a, err
}
