package services

import (
	"context"
	"io"
	"time"

	"medassist/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockMedicineRepository mocks the MedicineRepository interface for testing
type MockMedicineRepository struct {
	mock.Mock
}

func (m *MockMedicineRepository) Search(ctx context.Context, filter *models.MedicineFilter) ([]*models.Medicine, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Medicine), args.Error(1)
}

func (m *MockMedicineRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Medicine, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Medicine), args.Error(1)
}

func (m *MockMedicineRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Medicine, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Medicine), args.Error(1)
}

func (m *MockMedicineRepository) Create(ctx context.Context, medicine *models.Medicine) error {
	args := m.Called(ctx, medicine)
	return args.Error(0)
}

func (m *MockMedicineRepository) SetImage(ctx context.Context, id uuid.UUID, imageKey string) error {
	args := m.Called(ctx, id, imageKey)
	return args.Error(0)
}

func (m *MockMedicineRepository) Categories(ctx context.Context) (*models.CategoryList, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CategoryList), args.Error(1)
}

// MockPharmacyRepository mocks the PharmacyRepository interface for testing
type MockPharmacyRepository struct {
	mock.Mock
}

func (m *MockPharmacyRepository) Create(ctx context.Context, pharmacy *models.Pharmacy) error {
	args := m.Called(ctx, pharmacy)
	return args.Error(0)
}

func (m *MockPharmacyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Pharmacy, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Pharmacy), args.Error(1)
}

func (m *MockPharmacyRepository) Update(ctx context.Context, pharmacy *models.Pharmacy) error {
	args := m.Called(ctx, pharmacy)
	return args.Error(0)
}

func (m *MockPharmacyRepository) LicenseExists(ctx context.Context, license string) (bool, error) {
	args := m.Called(ctx, license)
	return args.Bool(0), args.Error(1)
}

func (m *MockPharmacyRepository) FindNearby(ctx context.Context, filter *models.NearbyFilter, bounds *models.GeoBounds) ([]*models.Pharmacy, error) {
	args := m.Called(ctx, filter, bounds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Pharmacy), args.Error(1)
}

func (m *MockPharmacyRepository) AddImage(ctx context.Context, id uuid.UUID, imageKey string) error {
	args := m.Called(ctx, id, imageKey)
	return args.Error(0)
}

// MockOfferRepository mocks the OfferRepository interface for testing
type MockOfferRepository struct {
	mock.Mock
}

func (m *MockOfferRepository) FindAvailable(ctx context.Context, filter *models.OfferFilter) ([]*models.AnnotatedOffer, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AnnotatedOffer), args.Error(1)
}

func (m *MockOfferRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Offer), args.Error(1)
}

func (m *MockOfferRepository) GetByPharmacyAndMedicine(ctx context.Context, pharmacyID, medicineID uuid.UUID) (*models.Offer, error) {
	args := m.Called(ctx, pharmacyID, medicineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Offer), args.Error(1)
}

func (m *MockOfferRepository) Upsert(ctx context.Context, offer *models.Offer) error {
	args := m.Called(ctx, offer)
	return args.Error(0)
}

func (m *MockOfferRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOfferRepository) ListByPharmacy(ctx context.Context, filter *models.InventoryFilter) ([]*models.InventoryItem, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.InventoryItem), args.Int(1), args.Error(2)
}

func (m *MockOfferRepository) LowStock(ctx context.Context, pharmacyID uuid.UUID) ([]*models.InventoryItem, error) {
	args := m.Called(ctx, pharmacyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.InventoryItem), args.Error(1)
}

func (m *MockOfferRepository) TopAvailable(ctx context.Context, pharmacyID uuid.UUID, limit int) ([]*models.InventoryItem, error) {
	args := m.Called(ctx, pharmacyID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.InventoryItem), args.Error(1)
}

func (m *MockOfferRepository) Trending(ctx context.Context, limit int) ([]*models.MedicineAggregate, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MedicineAggregate), args.Error(1)
}

func (m *MockOfferRepository) LowStockSummaries(ctx context.Context) ([]*models.LowStockSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LowStockSummary), args.Error(1)
}

// MockSubscriptionRepository mocks the SubscriptionRepository interface for testing
type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) Create(ctx context.Context, subscription *models.Subscription) error {
	args := m.Called(ctx, subscription)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.Subscription, error) {
	args := m.Called(ctx, checkoutRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) SetCheckoutRequestID(ctx context.Context, id uuid.UUID, checkoutRequestID string) error {
	args := m.Called(ctx, id, checkoutRequestID)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.SubscriptionStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) Activate(ctx context.Context, id uuid.UUID, settlement *models.PaymentSettlement, start, end time.Time) error {
	args := m.Called(ctx, id, settlement, start, end)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) ActiveForUser(ctx context.Context, userID uuid.UUID, now time.Time) (*models.Subscription, error) {
	args := m.Called(ctx, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) EntitledForUser(ctx context.Context, userID uuid.UUID, now time.Time) (*models.Subscription, error) {
	args := m.Called(ctx, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockCacheService mocks the CacheService interface for testing
type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetTrending(ctx context.Context) ([]*models.MedicineAggregate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MedicineAggregate), args.Error(1)
}

func (m *MockCacheService) SetTrending(ctx context.Context, trending []*models.MedicineAggregate, ttl time.Duration) error {
	args := m.Called(ctx, trending, ttl)
	return args.Error(0)
}

func (m *MockCacheService) GetCategories(ctx context.Context) (*models.CategoryList, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CategoryList), args.Error(1)
}

func (m *MockCacheService) SetCategories(ctx context.Context, categories *models.CategoryList, ttl time.Duration) error {
	args := m.Called(ctx, categories, ttl)
	return args.Error(0)
}

func (m *MockCacheService) SearchCount(ctx context.Context, userID uuid.UUID, day string) (int64, error) {
	args := m.Called(ctx, userID, day)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCacheService) IncrementSearchCount(ctx context.Context, userID uuid.UUID, day string) (int64, error) {
	args := m.Called(ctx, userID, day)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCacheService) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockMinioService mocks the MinioService interface for testing
type MockMinioService struct {
	mock.Mock
}

func (m *MockMinioService) UploadImage(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, contentType string) error {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize, contentType)
	return args.Error(0)
}

func (m *MockMinioService) GetPresignedURL(ctx context.Context, bucketName, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, bucketName, objectName, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockMinioService) DeleteImage(ctx context.Context, bucketName, objectName string) error {
	args := m.Called(ctx, bucketName, objectName)
	return args.Error(0)
}

func (m *MockMinioService) EnsureBucketExists(ctx context.Context, bucketName string) error {
	args := m.Called(ctx, bucketName)
	return args.Error(0)
}

func (m *MockMinioService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockPaymentGateway mocks the PaymentGateway interface for testing
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) Initiate(ctx context.Context, req *PaymentRequest) (*PaymentInitiation, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PaymentInitiation), args.Error(1)
}

func (m *MockPaymentGateway) Query(ctx context.Context, checkoutRequestID string) (map[string]interface{}, error) {
	args := m.Called(ctx, checkoutRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

// MockNotifier mocks the Notifier interface for testing
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, phoneNumber, message string) error {
	args := m.Called(ctx, phoneNumber, message)
	return args.Error(0)
}
