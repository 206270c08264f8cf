package status

//BatchStatus status of a batch run
type BatchStatus string

const (
	//STARTING represent beginning of a batch run
	STARTING BatchStatus = "STARTING"
	//STARTED batch run has been started and is running
	STARTED BatchStatus = "STARTED"
	//COMPLETED batch run has finished with zero failures
	COMPLETED BatchStatus = "COMPLETED"
	//FAILED batch run has finished with at least one failed item
	FAILED BatchStatus = "FAILED"
	//ABORTED cancellation was observed before every chunk could be admitted
	ABORTED BatchStatus = "ABORTED"
)

var statuses = map[BatchStatus]int{
	STARTING:  0,
	STARTED:   1,
	COMPLETED: 2,
	FAILED:    3,
	ABORTED:   4,
}

//And combine two statuses, keeping the more severe one
func (s BatchStatus) And(other BatchStatus) BatchStatus {
	i1, ok1 := statuses[s]
	i2, ok2 := statuses[other]
	if ok1 && ok2 {
		if i1 < i2 {
			return other
		}
		return s
	} else if ok1 {
		return other
	}
	return s
}
