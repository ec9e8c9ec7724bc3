package handlers

import (
	"context"
	"net/http"
	"testing"

	"medassist/internal/common"
	"medassist/internal/models"
	"medassist/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockSearchService mocks the SearchService interface for testing
type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) SearchMedicines(ctx context.Context, query *models.SearchQuery) (*models.SearchResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SearchResult), args.Error(1)
}

func newMedicineServer(svc services.SearchService) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = common.HTTPErrorHandler
	h := NewMedicineHandlers(svc, nil)
	e.GET("/medicines/search", h.Search)
	return e
}

func TestSearch_RejectsMalformedNumbers(t *testing.T) {
	tests := []struct {
		query   string
		message string
	}{
		{"search=panadol&latitude=north&longitude=36.8", "Invalid latitude"},
		{"search=panadol&latitude=-1.2&longitude=east", "Invalid longitude"},
		{"search=panadol&radius=far", "Invalid radius"},
		{"search=panadol&minPrice=cheap", "Invalid minPrice"},
		{"search=panadol&maxPrice=12.5", "Invalid maxPrice"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			svc := &MockSearchService{}
			e := newMedicineServer(svc)

			rec, body := doJSON(e, http.MethodGet, "/medicines/search?"+tt.query, "")

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["message"])
			svc.AssertNotCalled(t, "SearchMedicines", mock.Anything, mock.Anything)
		})
	}
}

func TestSearch_BuildsQuery(t *testing.T) {
	svc := &MockSearchService{}
	svc.On("SearchMedicines", mock.Anything, mock.MatchedBy(func(q *models.SearchQuery) bool {
		return q.Search == "metformin" &&
			q.Latitude != nil && *q.Latitude == -1.2864 &&
			q.Longitude != nil && *q.Longitude == 36.8172 &&
			q.Radius != nil && *q.Radius == 0 &&
			q.Category == "tablet" && q.TherapeuticClass == "diabetes" &&
			q.RequiresPrescription != nil && *q.RequiresPrescription &&
			q.MinPrice != nil && *q.MinPrice == 100 &&
			q.MaxPrice != nil && *q.MaxPrice == 800 &&
			q.Page == 2 && q.Limit == 5
	})).Return(&models.SearchResult{Results: []*models.SearchResultGroup{}}, nil).Once()
	e := newMedicineServer(svc)

	rec, _ := doJSON(e, http.MethodGet,
		"/medicines/search?search=metformin&latitude=-1.2864&longitude=36.8172&radius=0&category=tablet&therapeuticClass=diabetes&requiresPrescription=true&minPrice=100&maxPrice=800&page=2&limit=5", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestSearch_PrescriptionFilterAcceptsOnlyLiterals(t *testing.T) {
	tests := []struct {
		value string
		want  *bool
	}{
		{"true", boolPtr(true)},
		{"false", boolPtr(false)},
		{"TRUE", nil},
		{"1", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run("value "+tt.value, func(t *testing.T) {
			svc := &MockSearchService{}
			svc.On("SearchMedicines", mock.Anything, mock.MatchedBy(func(q *models.SearchQuery) bool {
				if tt.want == nil {
					return q.RequiresPrescription == nil
				}
				return q.RequiresPrescription != nil && *q.RequiresPrescription == *tt.want
			})).Return(&models.SearchResult{Results: []*models.SearchResultGroup{}}, nil).Once()
			e := newMedicineServer(svc)

			rec, _ := doJSON(e, http.MethodGet, "/medicines/search?search=x&requiresPrescription="+tt.value, "")

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Nil(t, svc.Calls[0].Arguments.Get(1).(*models.SearchQuery).Radius)
			svc.AssertExpectations(t)
		})
	}
}

func TestSearch_ResponseEnvelope(t *testing.T) {
	svc := &MockSearchService{}
	medicine := &models.Medicine{ID: uuid.New(), Name: "Panadol"}
	svc.On("SearchMedicines", mock.Anything, mock.Anything).Return(&models.SearchResult{
		PageInfo: models.PageInfo{Count: 1, Total: 3, Pages: 3, CurrentPage: 2},
		Results:  []*models.SearchResultGroup{{Medicine: medicine, Availability: []*models.AnnotatedOffer{}}},
	}, nil).Once()
	e := newMedicineServer(svc)

	rec, body := doJSON(e, http.MethodGet, "/medicines/search?search=panadol&page=2&limit=1", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, float64(3), body["total"])
	assert.Equal(t, float64(3), body["pages"])
	assert.Equal(t, float64(2), body["currentPage"])
	assert.NotContains(t, body, "message")
	results := body["results"].([]interface{})
	first := results[0].(map[string]interface{})
	assert.Equal(t, "Panadol", first["medicine"].(map[string]interface{})["name"])
}

func TestSearch_EmptyMatchCarriesMessage(t *testing.T) {
	svc := &MockSearchService{}
	svc.On("SearchMedicines", mock.Anything, mock.Anything).Return(&models.SearchResult{
		PageInfo: models.PageInfo{CurrentPage: 1},
		Message:  "No medicines found",
		Results:  []*models.SearchResultGroup{},
	}, nil).Once()
	e := newMedicineServer(svc)

	rec, body := doJSON(e, http.MethodGet, "/medicines/search?search=unobtainium", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "No medicines found", body["message"])
	assert.Equal(t, []interface{}{}, body["results"])
	assert.Equal(t, float64(0), body["total"])
	assert.Equal(t, float64(0), body["pages"])
}

func TestSearch_ServiceValidationError(t *testing.T) {
	svc := &MockSearchService{}
	svc.On("SearchMedicines", mock.Anything, mock.Anything).
		Return(nil, common.NewValidationError("Search term is required")).Once()
	e := newMedicineServer(svc)

	rec, body := doJSON(e, http.MethodGet, "/medicines/search?search=%20", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Search term is required", body["message"])
}

func boolPtr(v bool) *bool { return &v }
