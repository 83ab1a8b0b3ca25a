package repository

import (
	"context"
	"errors"
	"storefront-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrProductInUse is returned when deleting a product that historical order
// items still reference.
var ErrProductInUse = errors.New("product is referenced by existing orders")

type ProductRepository interface {
	Seed(ctx context.Context) error
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, productID string) (*model.Product, error)
	FindBySlug(ctx context.Context, slug string) (*model.Product, error)
	FindAvailable(ctx context.Context, tx *gorm.DB, productID string) (*model.Product, error)
	FindAvailableMany(ctx context.Context, tx *gorm.DB, productIDs []string) (map[string]*model.Product, error)
	UpdatePrice(ctx context.Context, productID string, price decimal.Decimal) error
	Delete(ctx context.Context, productID string) ([]string, error)
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

// seedID keeps seeded rows stable across restarts so seeding stays idempotent.
func seedID(kind, name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("storefront:"+kind+":"+name)).String()
}

func (r *productRepoImpl) Seed(ctx context.Context) error {
	bouquets := model.Category{ID: seedID("category", "bouquets"), Name: "Bouquets", Slug: "bouquets", IsActive: true, SortOrder: 1}
	hampers := model.Category{ID: seedID("category", "hampers"), Name: "Hampers", Slug: "hampers", IsActive: true, SortOrder: 2}

	roses := model.Subcategory{ID: seedID("subcategory", "roses"), CategoryID: bouquets.ID, Name: "Roses", Slug: "roses", IsActive: true}
	lilies := model.Subcategory{ID: seedID("subcategory", "lilies"), CategoryID: bouquets.ID, Name: "Lilies", Slug: "lilies", IsActive: true}
	chocolate := model.Subcategory{ID: seedID("subcategory", "chocolate"), CategoryID: hampers.ID, Name: "Chocolate", Slug: "chocolate", IsActive: true}

	bestseller := model.Tag{ID: seedID("tag", "bestseller"), Name: "Bestseller", Slug: "bestseller", IsActive: true}
	anniversary := model.Tag{ID: seedID("tag", "anniversary"), Name: "Anniversary", Slug: "anniversary", IsActive: true}

	products := []model.Product{
		{ID: seedID("product", "red-rose-bouquet"), Slug: "red-rose-bouquet", Name: "Red Rose Bouquet", Description: "Twelve long stem red roses",
			Price: decimal.RequireFromString("1299.00"), Currency: "INR", CategoryID: bouquets.ID, SubcategoryID: roses.ID, IsAvailable: true},
		{ID: seedID("product", "white-lily-bunch"), Slug: "white-lily-bunch", Name: "White Lily Bunch", Description: "Six oriental lilies",
			Price: decimal.RequireFromString("999.00"), Currency: "INR", CategoryID: bouquets.ID, SubcategoryID: lilies.ID, IsAvailable: true},
		{ID: seedID("product", "truffle-hamper"), Slug: "truffle-hamper", Name: "Truffle Hamper", Description: "Assorted dark chocolate truffles",
			Price: decimal.RequireFromString("1549.50"), Currency: "INR", CategoryID: hampers.ID, SubcategoryID: chocolate.ID, IsAvailable: true},
	}

	categories := []model.Category{bouquets, hampers}
	subcategories := []model.Subcategory{roses, lilies, chocolate}
	tags := []model.Tag{bestseller, anniversary}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&categories).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&subcategories).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&tags).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(&products).Error; err != nil {
			return err
		}

		return tx.Model(&products[0]).Association("Tags").Append(&bestseller, &anniversary)
	})
}

func (r *productRepoImpl) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepoImpl) FindByID(ctx context.Context, productID string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) FindBySlug(ctx context.Context, slug string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Tags").
		Where("slug = ?", slug).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) FindAvailable(ctx context.Context, tx *gorm.DB, productID string) (*model.Product, error) {
	var product model.Product
	err := tx.WithContext(ctx).
		Where("id = ? AND is_available = ?", productID, true).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

// FindAvailableMany returns the available products among productIDs keyed by
// id. Missing or unavailable ids are simply absent from the map.
func (r *productRepoImpl) FindAvailableMany(ctx context.Context, tx *gorm.DB, productIDs []string) (map[string]*model.Product, error) {
	var products []*model.Product
	err := tx.WithContext(ctx).
		Where("id IN ? AND is_available = ?", productIDs, true).
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	byID := make(map[string]*model.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}
	return byID, nil
}

func (r *productRepoImpl) UpdatePrice(ctx context.Context, productID string, price decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", productID).
		Update("price", price)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// Delete removes the product together with the cart items that hold it and
// returns the owners of those carts.
func (r *productRepoImpl) Delete(ctx context.Context, productID string) ([]string, error) {
	var cartOwners []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var referenced int64
		if err := tx.Model(&model.OrderItem{}).
			Where("product_id = ?", productID).
			Count(&referenced).Error; err != nil {
			return err
		}
		if referenced > 0 {
			return ErrProductInUse
		}

		if err := tx.Model(&model.Cart{}).
			Distinct("carts.user_id").
			Joins("JOIN cart_items ON cart_items.cart_id = carts.id").
			Where("cart_items.product_id = ?", productID).
			Pluck("carts.user_id", &cartOwners).Error; err != nil {
			return err
		}

		if err := tx.Where("product_id = ?", productID).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM product_tags WHERE product_id = ?", productID).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", productID).Delete(&model.Product{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cartOwners, nil
}
