package domain

import "time"

// SyncResult summarizes one sync run.
type SyncResult struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	EmailsFound        int `json:"emails_found"`
	PDFsDownloaded     int `json:"pdfs_downloaded"`
	TransactionsParsed int `json:"transactions_parsed"`
	NewTransactions    int `json:"new_transactions"`

	BanksProcessed []BankID `json:"banks_processed"`
	Errors         []string `json:"errors"`

	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"` // set only when the run aborted
}

// AddError appends a non-fatal error to the run's error list.
func (r *SyncResult) AddError(err error) {
	if err == nil {
		return
	}
	r.Errors = append(r.Errors, err.Error())
}

// AddBank records a bank once, keeping first-seen order.
func (r *SyncResult) AddBank(id BankID) {
	for _, b := range r.BanksProcessed {
		if b == id {
			return
		}
	}
	r.BanksProcessed = append(r.BanksProcessed, id)
}

// Abort marks the run as failed with zeroed counters.
func (r *SyncResult) Abort(err error) {
	r.EmailsFound = 0
	r.PDFsDownloaded = 0
	r.TransactionsParsed = 0
	r.NewTransactions = 0
	r.Success = false
	if err != nil {
		r.Error = err.Error()
	}
}
