package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealflow/crm/internal/domain"
	"github.com/dealflow/crm/internal/domain/mocks"
	"github.com/dealflow/crm/pkg/logger"
)

func TestAnalyticsHandler_Dashboard(t *testing.T) {
	snapshot := &domain.DashboardSnapshot{
		TotalContacts:  3,
		TotalDeals:     2,
		TotalDealValue: 15000,
		ConversionRate: 33.33,
		DealsByStage: []domain.DealsByStage{
			{Stage: domain.DealStageLead, Count: 1, TotalValue: 3000},
			{Stage: domain.DealStageClosedWon, Count: 1, TotalValue: 12000},
		},
		RecentActivities: []domain.RecentActivity{},
	}

	tests := []struct {
		name       string
		method     string
		setupMock  func(m *mocks.MockAnalyticsService)
		wantStatus int
	}{
		{
			name:   "snapshot",
			method: http.MethodGet,
			setupMock: func(m *mocks.MockAnalyticsService) {
				m.EXPECT().GetDashboard(gomock.Any(), testOwner).Return(snapshot, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "store failure",
			method: http.MethodGet,
			setupMock: func(m *mocks.MockAnalyticsService) {
				m.EXPECT().GetDashboard(gomock.Any(), testOwner).Return(nil, errors.New("timeout"))
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "wrong method",
			method:     http.MethodPost,
			setupMock:  func(m *mocks.MockAnalyticsService) {},
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := mocks.NewMockAnalyticsService(ctrl)
			tt.setupMock(svc)

			mux := http.NewServeMux()
			NewAnalyticsHandler(svc, logger.NewMockLogger()).RegisterRoutes(mux, passAuth)

			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(tt.method, "/api/analytics.dashboard", nil))

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				body := decodeBody(t, w)
				assert.Equal(t, float64(3), body["total_contacts"])
				assert.Equal(t, 33.33, body["conversion_rate"])
				assert.Len(t, body["deals_by_stage"], 2)
			}
		})
	}
}
