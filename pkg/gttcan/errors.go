package gttcan

// these are returned by Init; the core never retries or recovers from them,
// it only ever surfaces them to the caller at construction time.
var (
	errNodeIDZero        = &InitError{Reason: "node id 0 is forbidden"}
	errNilCallbacks      = &InitError{Reason: "all four callbacks are required"}
	errScheduleTooLong   = &InitError{Reason: "global schedule exceeds MaxGlobalScheduleLength"}
	errLocalScheduleOver = &InitError{Reason: "projected local schedule exceeds MaxLocalScheduleLength"}
	errEmptyLocal        = &InitError{Reason: "projected local schedule is empty: node owns no slots and no reference frame exists"}
)
