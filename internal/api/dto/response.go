package dto

type JobDTO struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Requirements string `json:"requirements"`
	Status       string `json:"status"`
}

type ApplicationDTO struct {
	ID        int64  `json:"id"`
	JobTitle  string `json:"job_title"`
	VK        string `json:"vk"`
	Age       int    `json:"age"`
	CreatedAt string `json:"created_at"`
}

type ScreenshotDTO struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

type SettingDTO struct {
	Key   string  `json:"key"`
	Value *string `json:"value"`
}

type CreatedResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
