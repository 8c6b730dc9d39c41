package model

// TaskType is the kind of inference workload a service runs.
type TaskType string

const (
	TaskTextGeneration      TaskType = "text-generation"
	TaskSpeechRecognition   TaskType = "speech-recognition"
	TaskTextToSpeech        TaskType = "text-to-speech"
	TaskImageClassification TaskType = "image-classification"
	TaskEmbeddings          TaskType = "embeddings"
)
