package logger

const (
	FieldChatID  = "chat_id"
	FieldSender  = "sender"
	FieldPreview = "preview"
	FieldIntent  = "intent"
	FieldError   = "error"
	FieldGroup   = "group"
	FieldCount   = "count"
)
