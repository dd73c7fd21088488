package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"sweet_shop/internal/apperr"
	"sweet_shop/internal/model"
)

// CreateSweetInput carries the fields of a new catalog item.
type CreateSweetInput struct {
	Name        string
	Description *string
	Category    string
	Price       decimal.Decimal
	Quantity    int
}

// SweetUpdate is a partial update; nil fields are left unchanged.
type SweetUpdate struct {
	Name        *string
	Description *string
	Category    *string
	Price       *decimal.Decimal
	Quantity    *int
	IsAvailable *bool
}

// SearchFilter composes with AND. InStock restricts to quantity > 0 only
// when it is explicitly true.
type SearchFilter struct {
	Name     *string
	Category *string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	InStock  *bool
}

// Catalog owns sweet records.
type Catalog struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewCatalog(db *gorm.DB, log logrus.FieldLogger) *Catalog {
	return &Catalog{db: db, log: log}
}

func sweetNotFound(id uint) *apperr.Error {
	return apperr.NotFound("Sweet with ID %d not found", id)
}

func sweetExists(name string) *apperr.Error {
	return apperr.Duplicate("Sweet with name '%s' already exists", name)
}

// Create adds a sweet. Availability starts as quantity > 0.
func (c *Catalog) Create(ctx context.Context, in CreateSweetInput) (*model.Sweet, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.Validation("Name is required")
	}
	if strings.TrimSpace(in.Category) == "" {
		return nil, apperr.Validation("Category is required")
	}
	if !in.Price.IsPositive() {
		return nil, apperr.Validation("Price must be greater than 0")
	}
	if in.Quantity < 0 {
		return nil, apperr.Validation("Quantity cannot be negative")
	}
	dup := sweetExists(in.Name)

	var existing int64
	if err := c.db.WithContext(ctx).Model(&model.Sweet{}).Where("name = ?", in.Name).Count(&existing).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	if existing > 0 {
		return nil, dup
	}

	s := &model.Sweet{
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		Quantity:    in.Quantity,
	}
	s.IsAvailable = s.InStock()
	if err := c.db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, storeErr(err, dup, nil)
	}

	c.log.WithFields(logrus.Fields{"sweet_id": s.ID, "name": s.Name}).Info("sweet created")
	return s, nil
}

func (c *Catalog) Get(ctx context.Context, id uint) (*model.Sweet, error) {
	var s model.Sweet
	if err := c.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, storeErr(err, nil, sweetNotFound(id))
	}
	return &s, nil
}

// List returns the total number of sweets and one page ordered by id.
func (c *Catalog) List(ctx context.Context, skip, limit int) (int64, []model.Sweet, error) {
	if err := checkPage(skip, limit); err != nil {
		return 0, nil, err
	}
	var total int64
	if err := c.db.WithContext(ctx).Model(&model.Sweet{}).Count(&total).Error; err != nil {
		return 0, nil, apperr.Internal(err)
	}
	sweets := make([]model.Sweet, 0, limit)
	if err := c.db.WithContext(ctx).Order("id").Offset(skip).Limit(limit).Find(&sweets).Error; err != nil {
		return 0, nil, apperr.Internal(err)
	}
	return total, sweets, nil
}

// Search returns every sweet matching f. Name is a case-insensitive
// substring match, category an exact one. An inverted price range
// matches nothing.
func (c *Catalog) Search(ctx context.Context, f SearchFilter) (int64, []model.Sweet, error) {
	q := c.db.WithContext(ctx).Model(&model.Sweet{})
	if f.Name != nil && *f.Name != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(*f.Name))+"%")
	}
	if f.Category != nil && *f.Category != "" {
		q = q.Where("category = ?", *f.Category)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	// in_stock=false 不做过滤，与未传等价。
	if f.InStock != nil && *f.InStock {
		q = q.Where("quantity > 0")
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, nil, apperr.Internal(err)
	}
	sweets := make([]model.Sweet, 0)
	if err := q.Session(&gorm.Session{}).Order("id").Find(&sweets).Error; err != nil {
		return 0, nil, apperr.Internal(err)
	}
	return total, sweets, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

// Update applies the present fields of u in a fixed order: plain fields,
// then availability derived from a new quantity, then an explicit
// availability override.
func (c *Catalog) Update(ctx context.Context, id uint, u SweetUpdate) (*model.Sweet, error) {
	if u.Price != nil && !u.Price.IsPositive() {
		return nil, apperr.Validation("Price must be greater than 0")
	}
	if u.Quantity != nil && *u.Quantity < 0 {
		return nil, apperr.Validation("Quantity cannot be negative")
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return nil, apperr.Validation("Name must not be empty")
	}
	if u.Category != nil && strings.TrimSpace(*u.Category) == "" {
		return nil, apperr.Validation("Category must not be empty")
	}

	var s model.Sweet
	var dup *apperr.Error
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&s, id).Error; err != nil {
			return storeErr(err, nil, sweetNotFound(id))
		}

		if u.Name != nil {
			dup = sweetExists(*u.Name)
			var clash int64
			if err := tx.Model(&model.Sweet{}).Where("name = ? AND id <> ?", *u.Name, id).Count(&clash).Error; err != nil {
				return err
			}
			if clash > 0 {
				return dup
			}
			s.Name = *u.Name
		}
		if u.Description != nil {
			s.Description = u.Description
		}
		if u.Category != nil {
			s.Category = *u.Category
		}
		if u.Price != nil {
			s.Price = *u.Price
		}
		if u.Quantity != nil {
			s.Quantity = *u.Quantity
			s.IsAvailable = s.InStock()
		}
		if u.IsAvailable != nil {
			s.IsAvailable = *u.IsAvailable
		}

		if err := tx.Save(&s).Error; err != nil {
			return storeErr(err, dup, nil)
		}
		return nil
	})
	if err != nil {
		return nil, passThrough(err)
	}

	c.log.WithField("sweet_id", id).Info("sweet updated")
	return &s, nil
}

// Delete removes the sweet together with its purchase records.
func (c *Catalog) Delete(ctx context.Context, id uint) error {
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s model.Sweet
		if err := tx.Select("id").First(&s, id).Error; err != nil {
			return storeErr(err, nil, sweetNotFound(id))
		}
		if err := tx.Where("sweet_id = ?", id).Delete(&model.Purchase{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Sweet{}, id).Error
	})
	if err != nil {
		return passThrough(err)
	}

	c.log.WithField("sweet_id", id).Info("sweet deleted")
	return nil
}
