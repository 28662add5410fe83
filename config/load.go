package config

import (
	"log/slog"
	"os"
	"strconv"
)

func Load() App {
	cfg := App{
		Port:        getenv("APP_PORT", "8080"),
		DatabaseURL: must("DATABASE_URL"),
		Env:         getenv("APP_ENV", "dev"),
		Loans: LoanPolicy{
			MaxLoansPerUser:   getint("MAX_LOANS_PER_USER", 5),
			LoanDurationDays:  getint("LOAN_DURATION_DAYS", 14),
			PenaltyRatePerDay: getfloat("PENALTY_RATE_PER_DAY", 0.5),
			MaxPenalty:        getfloat("MAX_PENALTY", 10.0),
		},
	}
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("bad int env, using default", "key", k, "value", v)
		return def
	}
	return n
}

func getfloat(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("bad float env, using default", "key", k, "value", v)
		return def
	}
	return f
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("required env missing", "key", k)
		panic("missing env " + k)
	}
	return v
}
