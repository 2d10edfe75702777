package fakeapi

// Config holds configuration for the fake results API.
type Config struct {
	Addr              string // Listen address
	YearFrom          int    // Newest year with events
	YearTo            int    // Oldest year with events
	EventsPerYear     int    // Events listed for each year in range
	FinishersPerEvent int    // Finishers listed for each event
	Seed              int64  // Seed for names and times
	DropEvery         int    // Close every Nth connection without answering; 0 disables
}

// Stats counts requests served.
type Stats struct {
	Searches      int64
	FinisherCalls int64
	Dropped       int64
}
