package dto

// BatchDTO is one batch in a schedule request.
type BatchDTO struct {
	Name     string            `json:"name" binding:"required"`
	Students []string          `json:"students" binding:"required,min=1,dive,required"`
	Schedule ScheduleWindowDTO `json:"schedule" binding:"required"`
	Active   *bool             `json:"active"`
}

// ScheduleDTO replaces a test's batches and optionally moves its status.
// Batches may be omitted only when cancelling.
type ScheduleDTO struct {
	Batches []BatchDTO `json:"batches" binding:"omitempty,dive"`
	Status  *string    `json:"status"`
}

// ResultOverrideDTO is the administrative correction of a result.
// Nil fields are left unchanged.
type ResultOverrideDTO struct {
	Score       *int              `json:"score"`
	Answers     map[string]string `json:"answers"`
	Correctness map[string]bool   `json:"correctness"`
}
