package model

import (
	"database/sql"
	"time"
)

// Job is a row of the jobs table as listed by the API
type Job struct {
	ID           int64  `db:"id"`
	Title        string `db:"title"`
	Requirements string `db:"requirements"`
	Status       string `db:"status"`
}

// Application is a row of the job_applications table
type Application struct {
	ID        int64     `db:"id"`
	JobTitle  string    `db:"job_title"`
	VK        string    `db:"vk"`
	Age       int       `db:"age"`
	CreatedAt time.Time `db:"created_at"`
}

// Screenshot is a row of the screenshots table
type Screenshot struct {
	ID  int64  `db:"id"`
	URL string `db:"url"`
}

// Setting is a row of the settings table. Value is nullable.
type Setting struct {
	Key   string         `db:"key"`
	Value sql.NullString `db:"value"`
}
