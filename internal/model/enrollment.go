package model

// Enrollment mirrors one entry of a student's enrolled-subjects list.
// The table is owned by the external roster service; this engine only reads it.
type Enrollment struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	StudentID string `json:"student_id" gorm:"not null;uniqueIndex:idx_enrollment"`
	Subject   string `json:"subject" gorm:"not null;uniqueIndex:idx_enrollment"`
	ClassID   string `json:"class_id" gorm:"not null;uniqueIndex:idx_enrollment"`
}
