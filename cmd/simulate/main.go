package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-availability-engine/pkg/logging"
)

type SimConfig struct {
	APIBaseURL    string
	Duration      time.Duration
	Workers       int
	Practitioners int
	Patients      int
	Date          string
	BookingRatio  float64
	StatusRatio   float64
	ReadRatio     float64
}

type slotTarget struct {
	PractitionerID int64
	Timestamp      time.Time
}

type DataPool struct {
	Slots        []slotTarget
	mu           sync.RWMutex
	appointments []int64
}

func (dp *DataPool) AddAppointment(id int64) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

func (dp *DataPool) RandomAppointment(faker *gofakeit.Faker) (int64, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return 0, false
	}
	return dp.appointments[faker.Number(0, len(dp.appointments)-1)], true
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
	logger  zerolog.Logger
}

func main() {
	_ = godotenv.Load()
	logger := logging.New(os.Getenv("LOG_LEVEL"), getEnv("APP_ENV", "dev")).With().Str("component", "simulate").Logger()

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	logger.Info().
		Dur("duration", cfg.Duration).
		Int("workers", cfg.Workers).
		Int("practitioners", cfg.Practitioners).
		Str("date", cfg.Date).
		Float64("booking", cfg.BookingRatio).
		Float64("status", cfg.StatusRatio).
		Float64("read", cfg.ReadRatio).
		Msg("simulator starting")

	sim := &Simulator{
		config: cfg,
		pool:   &DataPool{},
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sim.loadSlots(ctx); err != nil {
		logger.Fatal().Err(err).Msg("load slots")
	}
	logger.Info().Int("slots", len(sim.pool.Slots)).Msg("loaded open slots")

	sim.Run()
	sim.PrintReport()

	violations, err := sim.verify(context.Background())
	if err != nil {
		logger.Fatal().Err(err).Msg("verify")
	}
	if len(violations) > 0 {
		for _, v := range violations {
			fmt.Println("DOUBLE BOOKING:", v)
		}
		os.Exit(1)
	}
	fmt.Println("no double bookings found")
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:    getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:      getDuration("SIM_DURATION", 30*time.Second),
		Workers:       getInt("SIM_WORKERS", 10),
		Practitioners: getInt("SIM_PRACTITIONERS", 20),
		Patients:      getInt("SIM_PATIENTS", 4000),
		Date:          getEnv("SIM_DATE", nextMonday(time.Now()).Format("2006-01-02")),
		BookingRatio:  getFloat("SIM_BOOKING_RATIO", 0.5),
		StatusRatio:   getFloat("SIM_STATUS_RATIO", 0.2),
		ReadRatio:     getFloat("SIM_READ_RATIO", 0.3),
	}

	// Normalize ratios
	total := cfg.BookingRatio + cfg.StatusRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.StatusRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.Practitioners <= 0 || cfg.Patients <= 0 {
		return fmt.Errorf("SIM_PRACTITIONERS and SIM_PATIENTS must be > 0")
	}
	if _, err := time.Parse("2006-01-02", cfg.Date); err != nil {
		return fmt.Errorf("SIM_DATE: %w", err)
	}
	return nil
}

func nextMonday(now time.Time) time.Time {
	days := (int(time.Monday) - int(now.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return now.AddDate(0, 0, days)
}

type slotsView struct {
	Slots []struct {
		Timestamp time.Time `json:"timestamp"`
		Available bool      `json:"available"`
	} `json:"slots"`
}

// loadSlots collects every open slot of the configured practitioners on the simulation date.
func (s *Simulator) loadSlots(ctx context.Context) error {
	for pid := 1; pid <= s.config.Practitioners; pid++ {
		var view slotsView
		url := fmt.Sprintf("%s/slots?practitionerId=%d&date=%s", s.config.APIBaseURL, pid, s.config.Date)
		if err := s.getJSON(ctx, url, &view); err != nil {
			return err
		}
		for _, slot := range view.Slots {
			if slot.Available {
				s.pool.Slots = append(s.pool.Slots, slotTarget{PractitionerID: int64(pid), Timestamp: slot.Timestamp})
			}
		}
	}
	if len(s.pool.Slots) == 0 {
		return fmt.Errorf("no open slots on %s, run the seed first", s.config.Date)
	}
	return nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	s.logger.Info().Dur("duration", s.config.Duration).Int("workers", s.config.Workers).Msg("starting simulation")

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx)
		}()
	}

	wg.Wait()
	s.logger.Info().Msg("simulation complete")
}

func (s *Simulator) worker(ctx context.Context) {
	faker := gofakeit.New(0)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := faker.Float64()
			switch {
			case r < s.config.BookingRatio:
				s.doBooking(ctx, faker)
			case r < s.config.BookingRatio+s.config.StatusRatio:
				s.doStatusChange(ctx, faker)
			default:
				switch faker.Number(0, 2) {
				case 0:
					s.doResolveSlots(ctx, faker)
				case 1:
					s.doReadByID(ctx, faker)
				case 2:
					s.doListByPatient(ctx, faker)
				}
			}
		}
	}
}

func (s *Simulator) doBooking(ctx context.Context, faker *gofakeit.Faker) {
	target := s.pool.Slots[faker.Number(0, len(s.pool.Slots)-1)]

	body, _ := json.Marshal(map[string]any{
		"patientId":      faker.Number(1, s.config.Patients),
		"practitionerId": target.PractitionerID,
		"timestamp":      target.Timestamp.Format(time.RFC3339),
	})

	var created struct {
		ID int64 `json:"id"`
	}
	latency, status, err := s.send(ctx, http.MethodPost, s.config.APIBaseURL+"/appointments", body, &created)
	if err == nil && status == http.StatusCreated && created.ID > 0 {
		s.pool.AddAppointment(created.ID)
	}
	s.metrics.Booking.Record(latency, err == nil && status == http.StatusCreated, status == http.StatusConflict)
}

var statusTargets = []string{"completed", "cancelled", "no_show"}

func (s *Simulator) doStatusChange(ctx context.Context, faker *gofakeit.Faker) {
	id, ok := s.pool.RandomAppointment(faker)
	if !ok {
		return
	}

	body, _ := json.Marshal(map[string]string{"status": statusTargets[faker.Number(0, len(statusTargets)-1)]})
	latency, status, err := s.send(ctx, http.MethodPut, fmt.Sprintf("%s/appointments/%d/status", s.config.APIBaseURL, id), body, nil)
	s.metrics.StatusChange.Record(latency, err == nil && status == http.StatusOK, status == http.StatusConflict)
}

func (s *Simulator) doResolveSlots(ctx context.Context, faker *gofakeit.Faker) {
	url := fmt.Sprintf("%s/slots?practitionerId=%d&date=%s", s.config.APIBaseURL, faker.Number(1, s.config.Practitioners), s.config.Date)
	latency, status, err := s.send(ctx, http.MethodGet, url, nil, nil)
	s.metrics.ResolveSlots.Record(latency, err == nil && status == http.StatusOK, false)
}

func (s *Simulator) doReadByID(ctx context.Context, faker *gofakeit.Faker) {
	id, ok := s.pool.RandomAppointment(faker)
	if !ok {
		return
	}
	latency, status, err := s.send(ctx, http.MethodGet, fmt.Sprintf("%s/appointments/%d", s.config.APIBaseURL, id), nil, nil)
	s.metrics.ReadByID.Record(latency, err == nil && status == http.StatusOK, false)
}

func (s *Simulator) doListByPatient(ctx context.Context, faker *gofakeit.Faker) {
	url := fmt.Sprintf("%s/appointments?patientId=%d&limit=20&offset=0", s.config.APIBaseURL, faker.Number(1, s.config.Patients))
	latency, status, err := s.send(ctx, http.MethodGet, url, nil, nil)
	s.metrics.ListByPatient.Record(latency, err == nil && status == http.StatusOK, false)
}

func (s *Simulator) send(ctx context.Context, method, url string, body []byte, out any) (time.Duration, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return latency, 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return latency, resp.StatusCode, err
		}
	}
	return latency, resp.StatusCode, nil
}

func (s *Simulator) getJSON(ctx context.Context, url string, out any) error {
	_, status, err := s.send(ctx, http.MethodGet, url, nil, out)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", url, status)
	}
	return nil
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + rule())
	fmt.Println("SIMULATION REPORT")
	fmt.Println(rule())
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Printf("Open slots at start: %d\n", len(s.pool.Slots))
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Status change", &s.metrics.StatusChange)
	printOperationReport("Resolve slots", &s.metrics.ResolveSlots)
	printOperationReport("Read by ID", &s.metrics.ReadByID)
	printOperationReport("List by Patient", &s.metrics.ListByPatient)
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
