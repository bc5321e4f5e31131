//go:build integration

package integration

import (
	"context"
	"testing"

	"lemuel/catalog-service/internal/app/catalog/entity"
	"lemuel/catalog-service/internal/app/catalog/repository"
	"lemuel/catalog-service/internal/app/catalog/service"
	"lemuel/catalog-service/internal/app/catalog/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// CatalogIntegrationTestSuite содержит интеграционные тесты для catalog-service
// Требует запущенные PostgreSQL и Redis
type CatalogIntegrationTestSuite struct {
	suite.Suite
	db          *gorm.DB
	redisClient *util.RedisClient

	productService  *service.ProductService
	categoryService *service.CategoryService
	tagService      *service.TagService
}

// mockKafkaProducer не отправляет реальные сообщения
type mockKafkaProducer struct{}

func (m *mockKafkaProducer) PublishMessage(ctx context.Context, key string, value []byte) error {
	return nil
}

func (m *mockKafkaProducer) Close() error { return nil }

// SetupSuite выполняется один раз перед всеми тестами
func (s *CatalogIntegrationTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)

	dsn := "host=localhost port=5433 user=lemuel password=lemuel dbname=catalog_service_test sslmode=disable"
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(s.T(), err, "Failed to connect to PostgreSQL")
	s.db = db

	s.redisClient, err = util.NewRedisClient("localhost:6380", "", 15)
	require.NoError(s.T(), err, "Failed to connect to Redis")

	s.setupDatabase()

	productRepo := repository.NewProductRepository(s.db)
	categoryRepo := repository.NewCategoryRepository(s.db)
	tagRepo := repository.NewTagRepository(s.db)

	s.productService = service.NewProductService(productRepo, categoryRepo, tagRepo, &mockKafkaProducer{})
	s.categoryService = service.NewCategoryService(categoryRepo, productRepo, s.redisClient)
	s.tagService = service.NewTagService(tagRepo)
}

func (s *CatalogIntegrationTestSuite) TearDownSuite() {
	if s.redisClient != nil {
		s.redisClient.Close()
	}
	if s.db != nil {
		sqlDB, _ := s.db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	}
}

// SetupTest очищает таблицы и кеш перед каждым тестом
func (s *CatalogIntegrationTestSuite) SetupTest() {
	s.db.Exec(`TRUNCATE product_tags, product_images, products, tags, categories CASCADE`)
	s.redisClient.InvalidateCategoryTree(context.Background())
}

func (s *CatalogIntegrationTestSuite) setupDatabase() {
	s.db.Exec(`
		CREATE TABLE IF NOT EXISTS categories (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			slug TEXT NOT NULL UNIQUE,
			parent_id UUID REFERENCES categories(id),
			depth INT NOT NULL DEFAULT 0,
			sort_order INT NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	s.db.Exec(`
		CREATE TABLE IF NOT EXISTS products (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price BIGINT NOT NULL,
			stock_quantity INT NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'ACTIVE',
			category_id UUID REFERENCES categories(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tags (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			color TEXT NOT NULL DEFAULT '#999999',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	s.db.Exec(`
		CREATE TABLE IF NOT EXISTS product_tags (
			product_id UUID NOT NULL REFERENCES products(id),
			tag_id UUID NOT NULL REFERENCES tags(id),
			PRIMARY KEY (product_id, tag_id)
		)
	`)
	s.db.Exec(`
		CREATE TABLE IF NOT EXISTS product_images (
			id UUID PRIMARY KEY,
			product_id UUID NOT NULL REFERENCES products(id),
			image_url TEXT NOT NULL,
			alt_text TEXT NOT NULL DEFAULT '',
			sort_order INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
}

func TestCatalogIntegrationSuite(t *testing.T) {
	suite.Run(t, new(CatalogIntegrationTestSuite))
}

// ==================== Product Lifecycle Tests ====================

func (s *CatalogIntegrationTestSuite) TestProductLifecycle() {
	ctx := context.Background()

	// Создаем товар
	product, err := s.productService.CreateProduct(ctx, &entity.CreateProductRequest{
		Name:          "Red Ginseng Extract",
		Description:   "Premium 6-year Korean red ginseng extract",
		Price:         89000,
		StockQuantity: 20,
	})
	s.Require().NoError(err)
	s.Equal(entity.ProductStatusActive, product.Status)

	// Списываем весь остаток - товар уходит в OUT_OF_STOCK
	updated, err := s.productService.UpdateProductStock(ctx, product.ID, &entity.UpdateProductStockRequest{
		Quantity:   20,
		ChangeType: entity.StockChangeDecrease,
	})
	s.Require().NoError(err)
	s.Equal(0, updated.StockQuantity)
	s.Equal(entity.ProductStatusOutOfStock, updated.Status)

	// Списание сверх остатка отклоняется
	_, err = s.productService.UpdateProductStock(ctx, product.ID, &entity.UpdateProductStockRequest{
		Quantity:   1,
		ChangeType: entity.StockChangeDecrease,
	})
	s.ErrorIs(err, service.ErrInsufficientStock)

	// Пополнение возвращает товар в ACTIVE
	updated, err = s.productService.UpdateProductStock(ctx, product.ID, &entity.UpdateProductStockRequest{
		Quantity:   5,
		ChangeType: entity.StockChangeIncrease,
	})
	s.Require().NoError(err)
	s.Equal(entity.ProductStatusActive, updated.Status)

	// Снятие с продажи
	updated, err = s.productService.DiscontinueProduct(ctx, product.ID)
	s.Require().NoError(err)
	s.Equal(entity.ProductStatusDiscontinued, updated.Status)

	// Деактивация снятого товара запрещена
	_, err = s.productService.DeactivateProduct(ctx, product.ID)
	s.ErrorIs(err, service.ErrInvalidStatusChange)
}

// ==================== Category Tree Tests ====================

func (s *CatalogIntegrationTestSuite) TestCategoryTreeWithCache() {
	ctx := context.Background()

	root, err := s.categoryService.CreateCategory(ctx, &entity.CreateCategoryRequest{
		Name: "Health Food",
	})
	s.Require().NoError(err)
	s.Equal("health-food", root.Slug)

	child, err := s.categoryService.CreateCategory(ctx, &entity.CreateCategoryRequest{
		Name:     "Ginseng",
		ParentID: &root.ID,
	})
	s.Require().NoError(err)
	s.Equal(1, child.Depth)

	// Первый запрос собирает дерево и кеширует
	tree, err := s.categoryService.GetCategoryTree(ctx)
	s.Require().NoError(err)
	s.Require().Len(tree, 1)
	s.Require().Len(tree[0].Children, 1)
	s.Equal("ginseng", tree[0].Children[0].Slug)

	// Дерево читается из кеша
	cached, err := s.redisClient.GetCategoryTree(ctx)
	s.Require().NoError(err)
	s.Require().NotNil(cached)
	s.Len(cached, 1)

	// Запись инвалидирует кеш
	_, err = s.categoryService.CreateCategory(ctx, &entity.CreateCategoryRequest{
		Name: "Vitamins",
	})
	s.Require().NoError(err)

	cached, err = s.redisClient.GetCategoryTree(ctx)
	s.Require().NoError(err)
	s.Nil(cached)
}

func (s *CatalogIntegrationTestSuite) TestCategoryDepthLimit() {
	ctx := context.Background()

	root, err := s.categoryService.CreateCategory(ctx, &entity.CreateCategoryRequest{Name: "Level Zero"})
	s.Require().NoError(err)

	mid, err := s.categoryService.CreateCategory(ctx, &entity.CreateCategoryRequest{
		Name:     "Level One",
		ParentID: &root.ID,
	})
	s.Require().NoError(err)

	leaf, err := s.categoryService.CreateCategory(ctx, &entity.CreateCategoryRequest{
		Name:     "Level Two",
		ParentID: &mid.ID,
	})
	s.Require().NoError(err)
	s.Equal(2, leaf.Depth)

	// Четвертый уровень запрещен
	_, err = s.categoryService.CreateCategory(ctx, &entity.CreateCategoryRequest{
		Name:     "Level Three",
		ParentID: &leaf.ID,
	})
	s.ErrorIs(err, service.ErrCategoryDepthExceeded)
}

func (s *CatalogIntegrationTestSuite) TestDuplicateSlugRejected() {
	ctx := context.Background()

	_, err := s.categoryService.CreateCategory(ctx, &entity.CreateCategoryRequest{Name: "Health Food"})
	s.Require().NoError(err)

	_, err = s.categoryService.CreateCategory(ctx, &entity.CreateCategoryRequest{
		Name: "Another Name",
		Slug: "health-food",
	})
	s.ErrorIs(err, service.ErrDuplicateSlug)
}

func (s *CatalogIntegrationTestSuite) TestDeleteCategoryGuards() {
	ctx := context.Background()

	category, err := s.categoryService.CreateCategory(ctx, &entity.CreateCategoryRequest{Name: "Health Food"})
	s.Require().NoError(err)

	_, err = s.productService.CreateProduct(ctx, &entity.CreateProductRequest{
		Name:          "Red Ginseng Extract",
		Price:         89000,
		StockQuantity: 3,
		CategoryID:    &category.ID,
	})
	s.Require().NoError(err)

	err = s.categoryService.DeleteCategory(ctx, category.ID)
	s.ErrorIs(err, service.ErrCategoryHasProducts)
}

// ==================== Tag Tests ====================

func (s *CatalogIntegrationTestSuite) TestTagAttachDetach() {
	ctx := context.Background()

	product, err := s.productService.CreateProduct(ctx, &entity.CreateProductRequest{
		Name:          "Red Ginseng Extract",
		Price:         89000,
		StockQuantity: 3,
	})
	s.Require().NoError(err)

	tag, err := s.tagService.CreateTag(ctx, &entity.CreateTagRequest{
		Name:  "best-seller",
		Color: "#ff6600",
	})
	s.Require().NoError(err)

	s.Require().NoError(s.productService.AttachTag(ctx, product.ID, tag.ID))

	loaded, err := s.productService.GetProduct(ctx, product.ID)
	s.Require().NoError(err)
	s.Require().Len(loaded.Tags, 1)
	s.Equal("best-seller", loaded.Tags[0].Name)

	s.Require().NoError(s.productService.DetachTag(ctx, product.ID, tag.ID))

	loaded, err = s.productService.GetProduct(ctx, product.ID)
	s.Require().NoError(err)
	s.Len(loaded.Tags, 0)
}

// ==================== Image Tests ====================

func (s *CatalogIntegrationTestSuite) TestImageOrdering() {
	ctx := context.Background()

	product, err := s.productService.CreateProduct(ctx, &entity.CreateProductRequest{
		Name:          "Red Ginseng Extract",
		Price:         89000,
		StockQuantity: 3,
	})
	s.Require().NoError(err)

	first, err := s.productService.AttachImage(ctx, product.ID, &entity.AttachImageRequest{
		ImageURL:  "https://cdn.example.com/a.jpg",
		SortOrder: 0,
	})
	s.Require().NoError(err)

	second, err := s.productService.AttachImage(ctx, product.ID, &entity.AttachImageRequest{
		ImageURL:  "https://cdn.example.com/b.jpg",
		SortOrder: 1,
	})
	s.Require().NoError(err)

	// Меняем порядок
	err = s.productService.ReorderImages(ctx, product.ID, &entity.ReorderImagesRequest{
		ImageIDs: []uuid.UUID{second.ID, first.ID},
	})
	s.Require().NoError(err)

	images, err := s.productService.GetImages(ctx, product.ID)
	s.Require().NoError(err)
	s.Require().Len(images, 2)
	s.Equal(second.ID, images[0].ID)
	s.Equal(first.ID, images[1].ID)
}
