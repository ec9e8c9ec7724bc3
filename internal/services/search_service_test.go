package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"medassist/internal/common"
	"medassist/internal/config"
	"medassist/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var testSearchConfig = config.SearchConfig{
	DefaultRadius:       20000,
	DefaultNearbyRadius: 10000,
	DefaultLimit:        20,
	MaxLimit:            100,
}

// Monday 10:00 in Nairobi.
func fixedClock() time.Time {
	return time.Date(2024, time.January, 15, 10, 0, 0, 0, time.FixedZone("EAT", 3*60*60))
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func searchOffer(medicineID uuid.UUID, price int64, lat, lon float64) *models.AnnotatedOffer {
	return &models.AnnotatedOffer{
		ID:         uuid.New(),
		MedicineID: medicineID,
		Quantity:   25,
		Price:      decimal.NewFromInt(price),
		Status:     models.StatusAvailable,
		Pharmacy: models.PharmacyView{PharmacySummary: models.PharmacySummary{
			ID:             uuid.New(),
			Name:           "Test Pharmacy",
			Location:       models.NewPoint(lon, lat),
			OperatingHours: models.DefaultOperatingHours(),
			IsActive:       true,
			IsVerified:     true,
		}},
	}
}

type SearchServiceTestSuite struct {
	suite.Suite
	mockMedicineRepo *MockMedicineRepository
	mockOfferRepo    *MockOfferRepository
	mockMinio        *MockMinioService
	service          SearchService
}

func (suite *SearchServiceTestSuite) SetupTest() {
	suite.mockMedicineRepo = &MockMedicineRepository{}
	suite.mockOfferRepo = &MockOfferRepository{}
	suite.mockMinio = &MockMinioService{}
	images := NewImageResolver(suite.mockMinio, "medicine-images", "pharmacy-images", time.Hour)
	suite.service = NewSearchService(suite.mockMedicineRepo, suite.mockOfferRepo, images, fixedClock, testSearchConfig)
}

func (suite *SearchServiceTestSuite) TearDownTest() {
	suite.mockMedicineRepo.AssertExpectations(suite.T())
	suite.mockOfferRepo.AssertExpectations(suite.T())
	suite.mockMinio.AssertExpectations(suite.T())
}

func TestSearchServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SearchServiceTestSuite))
}

func (suite *SearchServiceTestSuite) TestSearch_RequiresSearchTerm() {
	_, err := suite.service.SearchMedicines(context.Background(), &models.SearchQuery{Search: "   "})

	require.Error(suite.T(), err)
	assert.Equal(suite.T(), common.KindValidation, common.KindOf(err))
	assert.Equal(suite.T(), "Search term is required", err.Error())
}

func (suite *SearchServiceTestSuite) TestSearch_RequiresBothCoordinates() {
	_, err := suite.service.SearchMedicines(context.Background(), &models.SearchQuery{
		Search:   "panadol",
		Latitude: floatPtr(-1.28),
	})

	require.Error(suite.T(), err)
	assert.Equal(suite.T(), "Both latitude and longitude are required for location search", err.Error())
}

func (suite *SearchServiceTestSuite) TestSearch_RejectsInvalidCoordinates() {
	_, err := suite.service.SearchMedicines(context.Background(), &models.SearchQuery{
		Search:    "panadol",
		Latitude:  floatPtr(95),
		Longitude: floatPtr(36.8),
	})

	require.Error(suite.T(), err)
	assert.Equal(suite.T(), "Invalid coordinates", err.Error())
}

func (suite *SearchServiceTestSuite) TestSearch_RejectsInvertedPriceRange() {
	_, err := suite.service.SearchMedicines(context.Background(), &models.SearchQuery{
		Search:   "panadol",
		MinPrice: intPtr(500),
		MaxPrice: intPtr(100),
	})

	require.Error(suite.T(), err)
	assert.Equal(suite.T(), common.KindValidation, common.KindOf(err))
}

func (suite *SearchServiceTestSuite) TestSearch_RejectsInvalidRadius() {
	for _, radius := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := suite.service.SearchMedicines(context.Background(), &models.SearchQuery{
			Search:    "panadol",
			Latitude:  floatPtr(-1.28),
			Longitude: floatPtr(36.8),
			Radius:    floatPtr(radius),
		})

		require.Error(suite.T(), err, radius)
		assert.Equal(suite.T(), common.KindValidation, common.KindOf(err), radius)
		assert.Equal(suite.T(), "Radius must be a non-negative number of meters", err.Error())
	}
	suite.mockMedicineRepo.AssertNotCalled(suite.T(), "Search", mock.Anything, mock.Anything)
}

func (suite *SearchServiceTestSuite) TestSearch_DefaultRadiusOnlyWhenAbsent() {
	med := &models.Medicine{ID: uuid.New(), Name: "Metformin"}
	here := searchOffer(med.ID, 500, -1.2864, 36.8172)
	nextDoor := searchOffer(med.ID, 300, -1.2900, 36.8200)

	suite.mockMedicineRepo.On("Search", mock.Anything, mock.Anything).Return([]*models.Medicine{med}, nil).Twice()
	suite.mockOfferRepo.On("FindAvailable", mock.Anything, mock.MatchedBy(func(f *models.OfferFilter) bool {
		return f.Bounds != nil && f.Bounds.MaxLatitude > -1.2864+0.17
	})).Return([]*models.AnnotatedOffer{here, nextDoor}, nil).Once()
	suite.mockOfferRepo.On("FindAvailable", mock.Anything, mock.MatchedBy(func(f *models.OfferFilter) bool {
		return f.Bounds != nil && f.Bounds.MaxLatitude == -1.2864
	})).Return([]*models.AnnotatedOffer{searchOffer(med.ID, 500, -1.2864, 36.8172), searchOffer(med.ID, 300, -1.2900, 36.8200)}, nil).Once()

	defaulted, err := suite.service.SearchMedicines(context.Background(), &models.SearchQuery{
		Search:    "metformin",
		Latitude:  floatPtr(-1.2864),
		Longitude: floatPtr(36.8172),
	})
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), defaulted.Results[0].Availability, 2)

	zero, err := suite.service.SearchMedicines(context.Background(), &models.SearchQuery{
		Search:    "metformin",
		Latitude:  floatPtr(-1.2864),
		Longitude: floatPtr(36.8172),
		Radius:    floatPtr(0),
	})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), zero.Results[0].Availability, 1)
	assert.Equal(suite.T(), 0.0, *zero.Results[0].Availability[0].Distance)
}

func (suite *SearchServiceTestSuite) TestSearch_NoMedicines() {
	suite.mockMedicineRepo.On("Search", mock.Anything, mock.MatchedBy(func(f *models.MedicineFilter) bool {
		return f.Text == "unknown"
	})).Return([]*models.Medicine{}, nil).Once()

	result, err := suite.service.SearchMedicines(context.Background(), &models.SearchQuery{Search: " unknown ", Page: 3})

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "No medicines found", result.Message)
	assert.Empty(suite.T(), result.Results)
	assert.NotNil(suite.T(), result.Results)
	assert.Equal(suite.T(), 3, result.CurrentPage)
	assert.Zero(suite.T(), result.Total)
}

func (suite *SearchServiceTestSuite) TestSearch_GroupsAndSortsByPrice() {
	imageKey := "meds/panadol.png"
	panadol := &models.Medicine{ID: uuid.New(), Name: "Panadol", ImageKey: &imageKey}
	amoxil := &models.Medicine{ID: uuid.New(), Name: "Amoxil"}

	cheap := searchOffer(amoxil.ID, 80, 0, 0)
	mid := searchOffer(panadol.ID, 120, 0, 0)
	pricey := searchOffer(panadol.ID, 300, 0, 0)
	outOfRange := searchOffer(panadol.ID, 900, 0, 0)
	unverified := searchOffer(amoxil.ID, 50, 0, 0)
	unverified.Pharmacy.IsVerified = false

	suite.mockMedicineRepo.On("Search", mock.Anything, mock.Anything).Return([]*models.Medicine{panadol, amoxil}, nil).Once()
	suite.mockOfferRepo.On("FindAvailable", mock.Anything, mock.MatchedBy(func(f *models.OfferFilter) bool {
		return len(f.MedicineIDs) == 2 && f.Bounds == nil &&
			f.MaxPrice != nil && f.MaxPrice.Equal(decimal.NewFromInt(500))
	})).Return([]*models.AnnotatedOffer{pricey, outOfRange, mid, unverified, cheap}, nil).Once()
	suite.mockMinio.On("GetPresignedURL", mock.Anything, "medicine-images", imageKey, time.Hour).
		Return("https://cdn.example/panadol.png", nil).Once()

	result, err := suite.service.SearchMedicines(context.Background(), &models.SearchQuery{
		Search:   "a",
		MaxPrice: intPtr(500),
	})

	require.NoError(suite.T(), err)
	require.Len(suite.T(), result.Results, 2)
	assert.Equal(suite.T(), 2, result.Total)
	assert.Equal(suite.T(), 1, result.Pages)
	assert.Equal(suite.T(), 1, result.CurrentPage)

	assert.Equal(suite.T(), amoxil.ID, result.Results[0].Medicine.ID)
	assert.Equal(suite.T(), []*models.AnnotatedOffer{cheap}, result.Results[0].Availability)

	assert.Equal(suite.T(), panadol.ID, result.Results[1].Medicine.ID)
	assert.Equal(suite.T(), []*models.AnnotatedOffer{mid, pricey}, result.Results[1].Availability)
	assert.Equal(suite.T(), "https://cdn.example/panadol.png", result.Results[1].Medicine.ImageURL)

	assert.True(suite.T(), cheap.Pharmacy.IsCurrentlyOpen)
	assert.Nil(suite.T(), cheap.Distance)
}

func (suite *SearchServiceTestSuite) TestSearch_GeoAwareFiltersAndSortsByDistance() {
	med := &models.Medicine{ID: uuid.New(), Name: "Metformin"}

	near := searchOffer(med.ID, 500, -1.2900, 36.8200)
	nearer := searchOffer(med.ID, 900, -1.2864, 36.8172)
	far := searchOffer(med.ID, 100, -0.0917, 34.7680)

	suite.mockMedicineRepo.On("Search", mock.Anything, mock.Anything).Return([]*models.Medicine{med}, nil).Once()
	suite.mockOfferRepo.On("FindAvailable", mock.Anything, mock.MatchedBy(func(f *models.OfferFilter) bool {
		return f.Bounds != nil && f.Bounds.MinLatitude < -1.2864 && f.Bounds.MaxLatitude > -1.2864
	})).Return([]*models.AnnotatedOffer{near, far, nearer}, nil).Once()

	result, err := suite.service.SearchMedicines(context.Background(), &models.SearchQuery{
		Search:    "metformin",
		Latitude:  floatPtr(-1.2864),
		Longitude: floatPtr(36.8172),
		Radius:    floatPtr(5000),
	})

	require.NoError(suite.T(), err)
	require.Len(suite.T(), result.Results, 1)
	offers := result.Results[0].Availability
	require.Len(suite.T(), offers, 2)
	assert.Equal(suite.T(), nearer, offers[0])
	assert.Equal(suite.T(), near, offers[1])
	require.NotNil(suite.T(), offers[0].Distance)
	assert.InDelta(suite.T(), 0, *offers[0].Distance, 1)
}

func (suite *SearchServiceTestSuite) TestSearch_PaginatesGroups() {
	var medicines []*models.Medicine
	var offers []*models.AnnotatedOffer
	for i := 0; i < 5; i++ {
		m := &models.Medicine{ID: uuid.New()}
		medicines = append(medicines, m)
		offers = append(offers, searchOffer(m.ID, int64(100+i), 0, 0))
	}

	suite.mockMedicineRepo.On("Search", mock.Anything, mock.Anything).Return(medicines, nil).Once()
	suite.mockOfferRepo.On("FindAvailable", mock.Anything, mock.Anything).Return(offers, nil).Once()

	result, err := suite.service.SearchMedicines(context.Background(), &models.SearchQuery{Search: "x", Page: 2, Limit: 2})

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, result.Count)
	assert.Equal(suite.T(), 5, result.Total)
	assert.Equal(suite.T(), 3, result.Pages)
	assert.Equal(suite.T(), medicines[2].ID, result.Results[0].Medicine.ID)
}

func (suite *SearchServiceTestSuite) TestSearch_RepositoryFailure() {
	suite.mockMedicineRepo.On("Search", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset")).Once()

	_, err := suite.service.SearchMedicines(context.Background(), &models.SearchQuery{Search: "x"})

	require.Error(suite.T(), err)
	assert.Equal(suite.T(), common.KindInternal, common.KindOf(err))
}
