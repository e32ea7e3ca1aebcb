package config

type WorkerKeyStruct struct {
	PersistResponsesQueue string
	PersistIntegrityQueue string
	PersistResultsQueue   string
}

var WorkerKey = &WorkerKeyStruct{
	PersistResponsesQueue: "persist_responses_queue",
	PersistIntegrityQueue: "persist_integrity_queue",
	PersistResultsQueue:   "persist_results_queue",
}
