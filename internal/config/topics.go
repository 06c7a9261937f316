package config

const (
	// TopicIngestTask carries ingestion jobs from the API to the ingest worker.
	TopicIngestTask = "ingest.task"

	// ChannelIngestWorker is the consumer channel shared by ingest workers.
	ChannelIngestWorker = "aiservice"
)
