package report

// Classify maps login/logout presence onto the ledger status and remarks.
// It is total: every combination yields a value.
func Classify(loginPresent, logoutPresent bool) (status, remarks string) {
	switch {
	case loginPresent && logoutPresent:
		return StatusPresent, RemarkAllGood
	case loginPresent:
		return StatusPresent, RemarkNoLogout
	case logoutPresent:
		return StatusPresent, RemarkNoLogin
	default:
		return StatusAbsent, RemarkAbsent
	}
}

// ClassifyRecord classifies a daily record; nil means no record exists for
// the (person, date) pair, which classifies as absent.
func ClassifyRecord(rec *DailyRecord) (status, remarks string) {
	if rec == nil {
		return Classify(false, false)
	}
	return Classify(rec.Login != nil, rec.Logout != nil)
}
