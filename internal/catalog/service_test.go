package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/NGxID18/CureCart/internal/catalog"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Search(ctx context.Context, f catalog.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockRepository) GetVisibleByID(ctx context.Context, id int64) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockRepository) ListAll(ctx context.Context) ([]catalog.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, p *catalog.Product) (int64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, p *catalog.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockRepository) SetArchived(ctx context.Context, id int64, archived bool) error {
	return m.Called(ctx, id, archived).Error(0)
}

func (m *MockRepository) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Category), args.Error(1)
}

func (m *MockRepository) GetCategory(ctx context.Context, id int64) (*catalog.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Category), args.Error(1)
}

func (m *MockRepository) CreateCategory(ctx context.Context, c *catalog.Category) (int64, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(int64), args.Error(1)
}

func TestService_Browse_UsesNewestSort(t *testing.T) {
	repo := new(MockRepository)
	svc := catalog.NewService(repo)

	expected := []catalog.Product{{ID: 1, Name: "Masker N95", Price: decimal.NewFromInt(25000), StockQuantity: 3}}
	repo.On("Search", mock.Anything, catalog.Filter{Query: "masker", Sort: catalog.SortNewest}).
		Return(expected, nil).
		Once()

	products, err := svc.Browse(context.Background(), "masker")
	require.NoError(t, err)
	require.Equal(t, expected, products)
	repo.AssertExpectations(t)
}

func TestService_Search_SwapsInvertedPriceRange(t *testing.T) {
	repo := new(MockRepository)
	svc := catalog.NewService(repo)

	low := decimal.NewFromInt(50000)
	high := decimal.NewFromInt(1000)

	repo.On("Search", mock.Anything, mock.MatchedBy(func(f catalog.Filter) bool {
		return f.MinPrice.Equal(high) && f.MaxPrice.Equal(low)
	})).Return([]catalog.Product{}, nil).Once()

	_, err := svc.Search(context.Background(), catalog.Filter{MinPrice: &low, MaxPrice: &high})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestService_Product_NotFound(t *testing.T) {
	repo := new(MockRepository)
	svc := catalog.NewService(repo)

	repo.On("GetVisibleByID", mock.Anything, int64(7)).Return(nil, catalog.ErrProductNotFound).Once()

	product, err := svc.Product(context.Background(), 7)
	require.ErrorIs(t, err, catalog.ErrProductNotFound)
	require.Nil(t, product)
	repo.AssertExpectations(t)
}

func TestService_CreateProduct(t *testing.T) {
	categoryID := int64(3)

	tests := []struct {
		name      string
		product   catalog.Product
		setup     func(repo *MockRepository)
		wantErrIs error
	}{
		{
			name:      "empty_name",
			product:   catalog.Product{Name: "  ", Price: decimal.NewFromInt(1)},
			setup:     func(repo *MockRepository) {},
			wantErrIs: catalog.ErrInvalidInput,
		},
		{
			name:      "negative_price",
			product:   catalog.Product{Name: "Termometer", Price: decimal.NewFromInt(-1)},
			setup:     func(repo *MockRepository) {},
			wantErrIs: catalog.ErrInvalidInput,
		},
		{
			name:    "unknown_category",
			product: catalog.Product{Name: "Termometer", Price: decimal.NewFromInt(1), CategoryID: &categoryID},
			setup: func(repo *MockRepository) {
				repo.On("GetCategory", mock.Anything, categoryID).Return(nil, catalog.ErrCategoryNotFound).Once()
			},
			wantErrIs: catalog.ErrCategoryNotFound,
		},
		{
			name:    "success",
			product: catalog.Product{Name: " Termometer ", Price: decimal.NewFromInt(45000), StockQuantity: 10, CategoryID: &categoryID},
			setup: func(repo *MockRepository) {
				repo.On("GetCategory", mock.Anything, categoryID).Return(&catalog.Category{ID: categoryID, Name: "Alat"}, nil).Once()
				repo.On("Create", mock.Anything, mock.MatchedBy(func(p *catalog.Product) bool {
					return p.Name == "Termometer"
				})).Run(func(args mock.Arguments) {
					args.Get(1).(*catalog.Product).ID = 11
				}).Return(int64(11), nil).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			tt.setup(repo)
			svc := catalog.NewService(repo)

			p := tt.product
			created, err := svc.CreateProduct(context.Background(), &p)
			if tt.wantErrIs != nil {
				require.ErrorIs(t, err, tt.wantErrIs)
				repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				require.Equal(t, int64(11), created.ID)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_ArchiveAndRestore(t *testing.T) {
	repo := new(MockRepository)
	svc := catalog.NewService(repo)

	repo.On("SetArchived", mock.Anything, int64(5), true).Return(nil).Once()
	repo.On("SetArchived", mock.Anything, int64(5), false).Return(nil).Once()
	repo.On("SetArchived", mock.Anything, int64(6), true).Return(catalog.ErrProductNotFound).Once()

	require.NoError(t, svc.Archive(context.Background(), 5))
	require.NoError(t, svc.Restore(context.Background(), 5))
	require.ErrorIs(t, svc.Archive(context.Background(), 6), catalog.ErrProductNotFound)
	repo.AssertExpectations(t)
}

func TestService_Categories_WrapsRepositoryError(t *testing.T) {
	repo := new(MockRepository)
	svc := catalog.NewService(repo)

	dbErr := errors.New("connection refused")
	repo.On("ListCategories", mock.Anything).Return(nil, dbErr).Once()

	_, err := svc.Categories(context.Background())
	require.ErrorIs(t, err, dbErr)
	repo.AssertExpectations(t)
}
