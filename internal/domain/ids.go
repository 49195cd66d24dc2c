package domain

// ActivityName identifies an activity. It doubles as the registry key and is immutable once seeded.
type ActivityName string
