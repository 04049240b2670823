package dto

// StudentDashboardResponse aggregates a student's standing across all
// enrolled classes. AverageScore is the rounded mean of effective
// scores over graded attempts; DayStreak counts consecutive calendar
// days with at least one submission, walking back from today.
type StudentDashboardResponse struct {
	ActiveClasses        int                  `json:"active_classes"`
	PendingAssignments   int                  `json:"pending_assignments"`
	CompletedAssignments int                  `json:"completed_assignments"`
	AverageScore         int                  `json:"average_score"`
	DayStreak            int                  `json:"day_streak"`
	RecentAttempts       []SubmissionResponse `json:"recent_attempts"`
}

// TeacherDashboardResponse aggregates activity across a teacher's
// classes, including the late-submission count used for follow-ups.
type TeacherDashboardResponse struct {
	TotalClasses      int                  `json:"total_classes"`
	TotalStudents     int                  `json:"total_students"`
	TotalAssignments  int                  `json:"total_assignments"`
	TotalSubmissions  int                  `json:"total_submissions"`
	AverageScore      int                  `json:"average_score"`
	LateSubmissions   int                  `json:"late_submissions"`
	RecentSubmissions []SubmissionResponse `json:"recent_submissions"`
}
