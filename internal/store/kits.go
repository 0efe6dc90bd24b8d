package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/erazemk/kitshelf/internal/collection"
	"github.com/erazemk/kitshelf/internal/model"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

const dateLayout = "2006-01-02"

var kitColumns = []string{
	"id", "owner_id", "brand", "product_line", "grade", "subline",
	"model_number", "model_name", "series", "release_year", "owned", "exclusive",
	"purchase_date", "purchase_price", "notes",
	"image_url", "image_thumbnail_url", "image_medium_url", "image_full_url",
	"created_at", "updated_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanKit(row rowScanner) (*model.Kit, error) {
	k := &model.Kit{}
	var (
		releaseYear   sql.NullInt64
		purchaseDate  sql.NullString
		purchasePrice sql.NullFloat64
	)
	err := row.Scan(
		&k.ID, &k.OwnerID, &k.Brand, &k.ProductLine, &k.Grade, &k.Subline,
		&k.ModelNumber, &k.ModelName, &k.Series, &releaseYear, &k.Owned, &k.Exclusive,
		&purchaseDate, &purchasePrice, &k.Notes,
		&k.Image.URL, &k.Image.Thumbnail, &k.Image.Medium, &k.Image.Full,
		&k.CreatedAt, &k.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if releaseYear.Valid {
		y := int(releaseYear.Int64)
		k.ReleaseYear = &y
	}
	if purchaseDate.Valid && purchaseDate.String != "" {
		d, err := time.Parse(dateLayout, purchaseDate.String)
		if err != nil {
			return nil, fmt.Errorf("parsing purchase date %q: %w", purchaseDate.String, err)
		}
		k.PurchaseDate = &d
	}
	if purchasePrice.Valid {
		p := purchasePrice.Float64
		k.PurchasePrice = &p
	}
	return k, nil
}

// kitValues maps the writable kit fields to their columns.
func kitValues(in *model.KitInput) map[string]any {
	var releaseYear, purchaseDate, purchasePrice any
	if in.ReleaseYear != nil {
		releaseYear = *in.ReleaseYear
	}
	if in.PurchaseDate != nil {
		purchaseDate = in.PurchaseDate.Format(dateLayout)
	}
	if in.PurchasePrice != nil {
		purchasePrice = *in.PurchasePrice
	}

	return map[string]any{
		"brand":               string(in.Brand),
		"product_line":        string(in.ProductLine),
		"grade":               string(in.Grade),
		"subline":             string(in.Subline),
		"model_number":        in.ModelNumber,
		"model_name":          in.ModelName,
		"series":              in.Series,
		"release_year":        releaseYear,
		"owned":               in.Owned,
		"exclusive":           in.Exclusive,
		"purchase_date":       purchaseDate,
		"purchase_price":      purchasePrice,
		"notes":               in.Notes,
		"image_url":           in.Image.URL,
		"image_thumbnail_url": in.Image.Thumbnail,
		"image_medium_url":    in.Image.Medium,
		"image_full_url":      in.Image.Full,
	}
}

// CreateKit validates the input and stores a new kit owned by ownerID.
func CreateKit(ctx context.Context, db *sql.DB, ownerID string, in model.KitInput) (*model.Kit, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating kit id: %w", err)
	}
	now := time.Now().UTC()

	values := kitValues(&in)
	values["id"] = id.String()
	values["owner_id"] = ownerID
	values["created_at"] = now
	values["updated_at"] = now

	query, args, err := sq.Insert("kits").SetMap(values).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building kit insert: %w", err)
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("creating kit: %w", err)
	}

	return GetKit(ctx, db, id.String())
}

// GetKit returns a kit by ID, or nil if it does not exist.
func GetKit(ctx context.Context, db *sql.DB, id string) (*model.Kit, error) {
	query, args, err := sq.Select(kitColumns...).From("kits").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building kit query: %w", err)
	}

	k, err := scanKit(db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting kit: %w", err)
	}
	return k, nil
}

// GetOwnedKit returns a kit only if ownerID owns it.
func GetOwnedKit(ctx context.Context, db *sql.DB, ownerID, id string) (*model.Kit, error) {
	k, err := GetKit(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if k == nil {
		return nil, fmt.Errorf("kit %s: %w", id, ErrNotFound)
	}
	if k.OwnerID != ownerID {
		return nil, fmt.Errorf("kit %s: %w", id, ErrForbidden)
	}
	return k, nil
}

// ListKits returns the owner's kits in one partition, newest first.
func ListKits(ctx context.Context, db *sql.DB, ownerID string, partition collection.Ownership) ([]model.Kit, error) {
	qb := sq.Select(kitColumns...).From("kits").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("created_at DESC", "id DESC")

	switch partition {
	case collection.OwnershipOwned:
		qb = qb.Where(sq.Eq{"owned": true})
	case collection.OwnershipWishlist:
		qb = qb.Where(sq.Eq{"owned": false})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building kit list query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing kits: %w", err)
	}
	defer rows.Close()

	kits := []model.Kit{}
	for rows.Next() {
		k, err := scanKit(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning kit: %w", err)
		}
		kits = append(kits, *k)
	}
	return kits, rows.Err()
}

// UpdateKit replaces the writable fields of a kit owned by ownerID.
func UpdateKit(ctx context.Context, db *sql.DB, ownerID, id string, in model.KitInput) (*model.Kit, error) {
	if _, err := GetOwnedKit(ctx, db, ownerID, id); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	values := kitValues(&in)
	values["updated_at"] = time.Now().UTC()

	if err := updateKit(ctx, db, id, values); err != nil {
		return nil, err
	}
	return GetKit(ctx, db, id)
}

// SetKitImage replaces only the image reference of a kit owned by ownerID.
func SetKitImage(ctx context.Context, db *sql.DB, ownerID, id string, ref model.ImageRef) (*model.Kit, error) {
	if _, err := GetOwnedKit(ctx, db, ownerID, id); err != nil {
		return nil, err
	}

	err := updateKit(ctx, db, id, map[string]any{
		"image_url":           ref.URL,
		"image_thumbnail_url": ref.Thumbnail,
		"image_medium_url":    ref.Medium,
		"image_full_url":      ref.Full,
		"updated_at":          time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return GetKit(ctx, db, id)
}

func updateKit(ctx context.Context, db *sql.DB, id string, values map[string]any) error {
	query, args, err := sq.Update("kits").SetMap(values).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("building kit update: %w", err)
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("updating kit: %w", err)
	}
	return nil
}

// DeleteKit removes a kit owned by ownerID.
func DeleteKit(ctx context.Context, db *sql.DB, ownerID, id string) error {
	if _, err := GetOwnedKit(ctx, db, ownerID, id); err != nil {
		return err
	}

	query, args, err := sq.Delete("kits").Where(sq.Eq{"id": id, "owner_id": ownerID}).ToSql()
	if err != nil {
		return fmt.Errorf("building kit delete: %w", err)
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting kit: %w", err)
	}
	return nil
}
