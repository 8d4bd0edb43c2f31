package insuranceservice

// EligibilityRequest запрос проверки полиса
type EligibilityRequest struct {
	MemberID         string `json:"member_id"`
	InsuranceCompany string `json:"insurance_company"`
	ServiceDate      string `json:"service_date"` // YYYY-MM-DD
}

// EligibilityResponse результат проверки полиса
type EligibilityResponse struct {
	Eligible    bool     `json:"eligible"`
	CopayAmount *float64 `json:"copay_amount,omitempty"`
	PlanName    string   `json:"plan_name,omitempty"`
}

// ErrorResponse модель ошибки от сервиса страховой
type ErrorResponse struct {
	Error string `json:"error"`
}
