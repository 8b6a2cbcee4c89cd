package models

// ChatExchange is one persisted (query, response) pair.
type ChatExchange struct {
	UserQuery   string `json:"user_query"`
	BotResponse string `json:"bot_response"`
}

type ChatRequest struct {
	Query   string `json:"query"`
	PDFText string `json:"pdf_text"`
}

type UploadResponse struct {
	ExtractedText string `json:"extracted_text"`
}
