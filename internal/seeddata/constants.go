package seeddata

// Vocabularies drawn from when generating records.
var (
	statuses        = []string{"pending", "in_progress", "resolved", "closed"}
	priorities      = []string{"low", "medium", "high", "urgent"}
	sentiments      = []string{"Anxious", "Sad", "Neutral", "Hopeful", "Overwhelmed"}
	riskLevels      = []string{"Low", "Medium", "High"}
	intensities     = []string{"low", "moderate", "high"}
	interpretations = []string{"Minimal", "Mild", "Moderate", "Moderately severe", "Severe"}
	redFlags        = []string{"hopelessness", "social isolation", "panic attacks", "worthlessness", "severe sleep deprivation"}
	stressors       = []string{"exams", "deadlines", "finances", "family conflict", "relationships", "housing", "workload"}
	issues          = []string{"perfectionism", "lack of social support network", "low self-esteem", "burnout"}
	concerns        = []string{"failing courses", "feeling alone", "money worries", "not sleeping", "homesickness"}
	topics          = []string{"sleep hygiene", "budgeting", "time management", "mindfulness", "peer support groups"}
	takeaways       = []string{"reach out early", "small routines help", "talk to a tutor"}
	firstSteps      = []string{"book a counselling session", "join a study group", "set a sleep schedule"}
	contents        = []string{
		"Student reports constant worry about upcoming exams and trouble sleeping.",
		"Feeling isolated since moving into halls, rarely leaves the room.",
		"Struggling to pay rent and cover food costs this month.",
		"Conflict at home is affecting concentration in lectures.",
		"Overwhelmed by coursework deadlines, skipping meals to keep up.",
		"Low mood for several weeks, lost interest in societies.",
	}
	feedback = []string{
		"Rough week.",
		"Feeling a bit better after talking to friends.",
		"Exams are stressing me out.",
		"Not sleeping well.",
		"",
	}
	counsellorNames = []string{"Dr. Amara Okafor", "Dr. Lena Fischer", "Sam Patel", "Dr. Kwame Mensah", "Ines Duarte", "Dr. Yuki Tanaka"}
)
