package model

// ReductionRequest is the service-layer input for running a program to
// normal form.
type ReductionRequest struct {
	JobUUID  string `json:"job_uuid"`
	Program  string `json:"program"`
	GasLimit uint64 `json:"gas_limit"`
}

// ReductionResponse is the service-layer outcome of a ReductionRequest.
type ReductionResponse struct {
	JobUUID    string       `json:"job_uuid"`
	Status     JobStatus    `json:"status"`
	NormalForm string       `json:"normal_form,omitempty"`
	Stats      RewriteStats `json:"stats"`
	Error      string       `json:"error,omitempty"`
}

// RewriteStats is a per-rule rewrite-step histogram for one reduction.
type RewriteStats struct {
	AppLam           uint64 `json:"app_lam"`
	AppPar           uint64 `json:"app_par"`
	LetLam           uint64 `json:"let_lam"`
	LetParAnnihilate uint64 `json:"let_par_annihilate"`
	LetParCommute    uint64 `json:"let_par_commute"`
	LetCtr           uint64 `json:"let_ctr"`
}

// Total returns the sum of every rule's firing count, i.e. the gas spent.
func (s RewriteStats) Total() uint64 {
	return s.AppLam + s.AppPar + s.LetLam + s.LetParAnnihilate + s.LetParCommute + s.LetCtr
}
