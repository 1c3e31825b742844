package dto

// QuestionCreateDTO creates or replaces a question bank entry.
type QuestionCreateDTO struct {
	Subject       string   `json:"subject" binding:"required"`
	ClassID       string   `json:"class" binding:"required"`
	Text          string   `json:"text" binding:"required"`
	Options       []string `json:"options" binding:"required,min=2,dive,required"`
	CorrectAnswer string   `json:"correctAnswer" binding:"required"`
	Mark          int      `json:"mark" binding:"required,gt=0"`
}

// SubmitDTO is a student's complete answer set for one test.
// Answers maps question id to the selected option text.
type SubmitDTO struct {
	UserID  string            `json:"userId"`
	Answers map[string]string `json:"answers" binding:"required"`
}

// ClassAverageQuery selects the results aggregated by ClassAverage.
type ClassAverageQuery struct {
	ClassID      string `form:"class" binding:"required"`
	Subject      string `form:"subject" binding:"required"`
	AcademicYear string `form:"session" binding:"required"` // e.g. 2024/2025
	Term         string `form:"term"`                       // First, Second or Third; empty for the whole year
}
