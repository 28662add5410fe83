package config

type App struct {
	Port        string `env:"APP_PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	Env         string `env:"APP_ENV" default:"dev"`
	Loans       LoanPolicy
}

// LoanPolicy holds the lending tunables. It is passed into the loan
// service at construction so tests can vary policy per instance.
type LoanPolicy struct {
	MaxLoansPerUser   int     `env:"MAX_LOANS_PER_USER" default:"5"`
	LoanDurationDays  int     `env:"LOAN_DURATION_DAYS" default:"14"`
	PenaltyRatePerDay float64 `env:"PENALTY_RATE_PER_DAY" default:"0.5"`
	MaxPenalty        float64 `env:"MAX_PENALTY" default:"10.0"`
}

func DefaultLoanPolicy() LoanPolicy {
	return LoanPolicy{
		MaxLoansPerUser:   5,
		LoanDurationDays:  14,
		PenaltyRatePerDay: 0.5,
		MaxPenalty:        10.0,
	}
}
