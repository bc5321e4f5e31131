package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lemuel/catalog-service/internal/app/catalog/entity"
	"lemuel/catalog-service/internal/app/catalog/repository"
	"lemuel/catalog-service/internal/app/catalog/util"
	"lemuel/pkg/logger"
	"lemuel/pkg/metrics"

	"github.com/google/uuid"
)

// Максимальная глубина дерева категорий: корень, подкатегория, под-подкатегория
const maxCategoryDepth = 2

// TTL кеша дерева категорий в Redis
const categoryTreeCacheTTL = time.Hour

// CategoryService обрабатывает бизнес-логику категорий.
// Дерево категорий кешируется в Redis и инвалидируется при любой записи.
type CategoryService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	cache        util.CategoryCache
}

// NewCategoryService создает новый сервис категорий
func NewCategoryService(
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	cache util.CategoryCache,
) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		cache:        cache,
	}
}

// CreateCategory создает новую категорию.
// Slug генерируется из названия, если не передан явно.
func (s *CategoryService) CreateCategory(ctx context.Context, req *entity.CreateCategoryRequest) (*entity.Category, error) {
	slug := req.Slug
	if slug == "" {
		slug = util.GenerateSlug(req.Name)
	}
	if !util.IsValidSlug(slug) {
		return nil, ErrInvalidSlug
	}

	depth := 0
	if req.ParentID != nil {
		parent, err := s.categoryRepo.GetByID(ctx, *req.ParentID)
		if err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, fmt.Errorf("failed to get parent category: %w", err)
		}

		depth = parent.Depth + 1
		if depth > maxCategoryDepth {
			return nil, ErrCategoryDepthExceeded
		}
	}

	category := &entity.Category{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Slug:        slug,
		ParentID:    req.ParentID,
		Depth:       depth,
		SortOrder:   req.SortOrder,
		IsActive:    true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return nil, ErrDuplicateSlug
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.invalidateTreeCache(ctx)

	return category, nil
}

// GetCategory получает категорию по ID
func (s *CategoryService) GetCategory(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return category, nil
}

// GetCategoryBySlug получает категорию по slug
func (s *CategoryService) GetCategoryBySlug(ctx context.Context, slug string) (*entity.Category, error) {
	category, err := s.categoryRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category by slug: %w", err)
	}

	return category, nil
}

// GetAllCategories получает плоский список всех категорий
func (s *CategoryService) GetAllCategories(ctx context.Context) ([]entity.Category, error) {
	categories, err := s.categoryRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}

	return categories, nil
}

// GetCategoryTree возвращает дерево активных категорий.
// Сначала проверяется Redis кеш, при cache miss дерево собирается
// из БД и кешируется на час.
func (s *CategoryService) GetCategoryTree(ctx context.Context) ([]entity.CategoryNode, error) {
	tree, err := s.cache.GetCategoryTree(ctx)
	if err == nil && tree != nil {
		metrics.RecordCacheHit("catalog-service", "categories:tree")
		return tree, nil
	}
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to read category tree from cache")
	}
	metrics.RecordCacheMiss("catalog-service", "categories:tree")

	categories, err := s.categoryRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}

	tree = buildCategoryTree(categories)

	if err := s.cache.SetCategoryTree(ctx, tree, categoryTreeCacheTTL); err != nil {
		logger.Warn().Err(err).Msg("Failed to cache category tree")
	}

	return tree, nil
}

// UpdateCategory обновляет категорию и инвалидирует кеш дерева.
// Смена родителя проверяется на циклы и превышение глубины.
func (s *CategoryService) UpdateCategory(ctx context.Context, id uuid.UUID, req *entity.UpdateCategoryRequest) (*entity.Category, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		category.Name = req.Name
	}
	if req.Description != "" {
		category.Description = req.Description
	}
	if req.SortOrder != nil {
		category.SortOrder = *req.SortOrder
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	if req.ParentID != nil {
		if *req.ParentID == id {
			return nil, ErrCircularCategory
		}

		parent, err := s.categoryRepo.GetByID(ctx, *req.ParentID)
		if err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, fmt.Errorf("failed to get parent category: %w", err)
		}

		// Новый родитель не может быть потомком категории
		if err := s.checkAncestry(ctx, id, parent); err != nil {
			return nil, err
		}

		newDepth := parent.Depth + 1
		if newDepth > maxCategoryDepth {
			return nil, ErrCategoryDepthExceeded
		}

		// Перенос с детьми глубже лимита запрещен
		childCount, err := s.categoryRepo.CountChildren(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to count children: %w", err)
		}
		if childCount > 0 && newDepth >= maxCategoryDepth {
			return nil, ErrCategoryDepthExceeded
		}

		category.ParentID = req.ParentID
		category.Depth = newDepth
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return nil, ErrDuplicateSlug
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	s.invalidateTreeCache(ctx)

	return category, nil
}

// DeleteCategory удаляет категорию.
// Категорию с дочерними категориями или товарами удалить нельзя.
func (s *CategoryService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	childCount, err := s.categoryRepo.CountChildren(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count children: %w", err)
	}
	if childCount > 0 {
		return ErrCategoryHasChildren
	}

	productCount, err := s.productRepo.CountByCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if productCount > 0 {
		return ErrCategoryHasProducts
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		if errors.Is(err, repository.ErrCategoryHasProducts) {
			return ErrCategoryHasProducts
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.invalidateTreeCache(ctx)

	return nil
}

// checkAncestry возвращает ErrCircularCategory если candidate является
// потомком категории id
func (s *CategoryService) checkAncestry(ctx context.Context, id uuid.UUID, candidate *entity.Category) error {
	current := candidate
	for current.ParentID != nil {
		if *current.ParentID == id {
			return ErrCircularCategory
		}
		parent, err := s.categoryRepo.GetByID(ctx, *current.ParentID)
		if err != nil {
			return fmt.Errorf("failed to walk category ancestry: %w", err)
		}
		current = parent
	}
	return nil
}

func (s *CategoryService) invalidateTreeCache(ctx context.Context) {
	if err := s.cache.InvalidateCategoryTree(ctx); err != nil {
		// Категория уже записана в БД, протухший кеш истечет по TTL
		logger.Warn().Err(err).Msg("Failed to invalidate category tree cache")
	}
}

// buildCategoryTree собирает дерево из плоского списка.
// Список отсортирован по depth, поэтому родители обрабатываются раньше детей.
func buildCategoryTree(categories []entity.Category) []entity.CategoryNode {
	nodes := make(map[uuid.UUID]*entity.CategoryNode, len(categories))
	var roots []uuid.UUID
	var order []uuid.UUID

	for _, c := range categories {
		if !c.IsActive {
			continue
		}
		node := &entity.CategoryNode{Category: c, Children: []entity.CategoryNode{}}
		nodes[c.ID] = node
		order = append(order, c.ID)
		if c.ParentID == nil {
			roots = append(roots, c.ID)
		}
	}

	// Прикрепляем детей к родителям снизу вверх, чтобы вложенные
	// слайсы Children были уже собраны
	for i := len(order) - 1; i >= 0; i-- {
		node := nodes[order[i]]
		if node.ParentID == nil {
			continue
		}
		parent, ok := nodes[*node.ParentID]
		if !ok {
			// Родитель неактивен - ветка не попадает в дерево
			continue
		}
		parent.Children = append([]entity.CategoryNode{*node}, parent.Children...)
	}

	tree := make([]entity.CategoryNode, 0, len(roots))
	for _, id := range roots {
		tree = append(tree, *nodes[id])
	}

	return tree
}
