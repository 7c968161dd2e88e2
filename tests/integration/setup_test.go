package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"cadence/internal/events"
	"cadence/internal/handlers"
	"cadence/internal/logger"
	"cadence/internal/middleware"
	"cadence/internal/models"
	"cadence/internal/services"
	"cadence/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Household{},
		&models.PayCycle{},
		&models.Seed{},
		&models.Pot{},
		&models.Repayment{},
		&models.IncomeSource{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)
	publisher := events.NewNopPublisher()

	// Services
	userService := services.NewUserService(db)
	householdService := services.NewHouseholdService(db)
	incomeService := services.NewIncomeSourceService(db)
	cycleService := services.NewPayCycleService(db, incomeService, publisher)
	seedService := services.NewSeedService(db, publisher)
	potService := services.NewPotService(db)
	repaymentService := services.NewRepaymentService(db)
	forecastService := services.NewForecastService(db)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	householdHandler := handlers.NewHouseholdHandler(householdService, auditService)
	incomeHandler := handlers.NewIncomeSourceHandler(incomeService, householdService, auditService)
	cycleHandler := handlers.NewPayCycleHandler(cycleService, householdService, auditService)
	seedHandler := handlers.NewSeedHandler(seedService, householdService, auditService)
	potHandler := handlers.NewPotHandler(potService, forecastService, householdService, auditService)
	repaymentHandler := handlers.NewRepaymentHandler(repaymentService, forecastService, householdService, auditService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	households := protected.Group("/households")
	households.POST("", householdHandler.Create)
	households.GET("/me", householdHandler.Get)
	households.POST("/join", householdHandler.Join)
	households.PATCH("/settings", householdHandler.UpdateSettings)
	households.PUT("/percentages", householdHandler.UpdatePercentages)

	incomes := protected.Group("/income-sources")
	incomes.POST("", incomeHandler.Create)
	incomes.GET("", incomeHandler.List)
	incomes.PUT("/:id", incomeHandler.Update)
	incomes.DELETE("/:id", incomeHandler.Delete)

	cycles := protected.Group("/cycles")
	cycles.GET("/active", cycleHandler.GetActive)
	cycles.GET("", cycleHandler.GetHistory)
	cycles.POST("/next", cycleHandler.CreateNext)
	cycles.POST("/next/resync", cycleHandler.ResyncDraft)
	cycles.POST("/start", cycleHandler.StartNext)
	cycles.GET("/:id", cycleHandler.GetCycle)
	cycles.POST("/:id/close", cycleHandler.CloseRitual)
	cycles.POST("/:id/unlock", cycleHandler.UnlockRitual)
	cycles.POST("/:id/seeds", seedHandler.Create)

	seeds := protected.Group("/seeds")
	seeds.PUT("/:id", seedHandler.Update)
	seeds.DELETE("/:id", seedHandler.Delete)
	seeds.POST("/:id/pay", seedHandler.MarkPaid)
	seeds.POST("/:id/unpay", seedHandler.UnmarkPaid)

	pots := protected.Group("/pots")
	pots.POST("", potHandler.Create)
	pots.GET("", potHandler.List)
	pots.GET("/:id", potHandler.Get)
	pots.PUT("/:id", potHandler.Update)
	pots.DELETE("/:id", potHandler.Delete)
	pots.POST("/:id/complete", potHandler.MarkComplete)
	pots.GET("/:id/forecast", potHandler.Forecast)

	repayments := protected.Group("/repayments")
	repayments.POST("", repaymentHandler.Create)
	repayments.GET("", repaymentHandler.List)
	repayments.GET("/:id", repaymentHandler.Get)
	repayments.PUT("/:id", repaymentHandler.Update)
	repayments.DELETE("/:id", repaymentHandler.Delete)
	repayments.POST("/:id/payoff", repaymentHandler.MarkPaidOff)
	repayments.GET("/:id/forecast", repaymentHandler.Forecast)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(string)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// createHousehold creates a household for the given token and returns its ID.
func (app *testApp) createHousehold(t *testing.T, token, name string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"pay_cycle_type":"specific_date","pay_day":25}`, name)
	rec := app.request("POST", "/api/v1/households", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create household failed: %d %s", rec.Code, rec.Body.String())
	}
	household := parseJSON(t, rec)["household"].(map[string]interface{})
	return household["id"].(string)
}

// addIncomeSource registers a monthly income stream for the household.
func (app *testApp) addIncomeSource(t *testing.T, token, name, amount, source string) {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"amount":%q,"frequency_rule":"specific_date","day_of_month":25,"payment_source":%q}`,
		name, amount, source)
	rec := app.request("POST", "/api/v1/income-sources", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add income source failed: %d %s", rec.Code, rec.Body.String())
	}
}

// startCycle bootstraps the household's first active cycle and returns its ID.
func (app *testApp) startCycle(t *testing.T, token string) string {
	t.Helper()
	rec := app.request("POST", "/api/v1/cycles/start", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("start cycle failed: %d %s", rec.Code, rec.Body.String())
	}
	cycle := parseJSON(t, rec)["cycle"].(map[string]interface{})
	return cycle["id"].(string)
}

// addSeed adds a seed to a cycle and returns its ID.
func (app *testApp) addSeed(t *testing.T, token, cycleID, body string) string {
	t.Helper()
	rec := app.request("POST", "/api/v1/cycles/"+cycleID+"/seeds", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add seed failed: %d %s", rec.Code, rec.Body.String())
	}
	seed := parseJSON(t, rec)["seed"].(map[string]interface{})
	return seed["id"].(string)
}

// paySeed marks a seed paid for the given payer.
func (app *testApp) paySeed(t *testing.T, token, seedID, payer string) {
	t.Helper()
	rec := app.request("POST", "/api/v1/seeds/"+seedID+"/pay", fmt.Sprintf(`{"payer":%q}`, payer), token)
	if rec.Code != http.StatusOK {
		t.Fatalf("pay seed failed: %d %s", rec.Code, rec.Body.String())
	}
}
