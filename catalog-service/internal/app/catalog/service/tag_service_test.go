package service

import (
	"context"
	"testing"

	"lemuel/catalog-service/internal/app/catalog/entity"
	"lemuel/catalog-service/internal/app/catalog/repository"
	"lemuel/catalog-service/internal/app/catalog/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==================== Tag Tests ====================

func TestCreateTag_Success(t *testing.T) {
	// Arrange
	tagRepo := new(mocks.MockTagRepository)
	svc := NewTagService(tagRepo)

	tagRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Tag")).Return(nil)

	// Act
	tag, err := svc.CreateTag(context.Background(), &entity.CreateTagRequest{
		Name:  "best-seller",
		Color: "#ff6600",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "best-seller", tag.Name)
	assert.Equal(t, "#ff6600", tag.Color)
}

func TestCreateTag_DefaultColor(t *testing.T) {
	// Arrange
	tagRepo := new(mocks.MockTagRepository)
	svc := NewTagService(tagRepo)

	tagRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Tag")).Return(nil)

	// Act
	tag, err := svc.CreateTag(context.Background(), &entity.CreateTagRequest{
		Name: "new",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, defaultTagColor, tag.Color)
}

func TestCreateTag_DuplicateName(t *testing.T) {
	// Arrange
	tagRepo := new(mocks.MockTagRepository)
	svc := NewTagService(tagRepo)

	tagRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Tag")).Return(repository.ErrDuplicateTagName)

	// Act
	tag, err := svc.CreateTag(context.Background(), &entity.CreateTagRequest{
		Name: "best-seller",
	})

	// Assert
	assert.ErrorIs(t, err, ErrDuplicateTagName)
	assert.Nil(t, tag)
}
