package opcheck

import "sync"

// Pool capacities. Request results carry at most one issue; response
// results usually a handful.
const (
	requestIssuesCap     = 1
	responseIssuesCap    = 4
	responseElementsCap  = 8
	requestParamsSizeCap = 16
)

var requestResultPool = sync.Pool{
	New: func() any {
		return &RequestResult{
			Valid:  true,
			Params: make(map[string]any, requestParamsSizeCap),
			Issues: make([]Issue, 0, requestIssuesCap),
		}
	},
}

// getRequestResult retrieves a RequestResult from the pool and resets it.
func getRequestResult() *RequestResult {
	r := requestResultPool.Get().(*RequestResult)
	r.reset()
	return r
}

var responseResultPool = sync.Pool{
	New: func() any {
		return &ResponseResult{
			Valid:    true,
			Issues:   make([]Issue, 0, responseIssuesCap),
			Elements: make([]ElementOutcome, 0, responseElementsCap),
		}
	},
}

// getResponseResult retrieves a ResponseResult from the pool and resets it.
func getResponseResult() *ResponseResult {
	r := responseResultPool.Get().(*ResponseResult)
	r.reset()
	return r
}

// Release returns the result to the pool. The result and everything reached
// through it must not be used afterwards.
func (r *RequestResult) Release() {
	if r == nil {
		return
	}
	requestResultPool.Put(r)
}

// Release returns the result to the pool. The result and everything reached
// through it must not be used afterwards.
func (r *ResponseResult) Release() {
	if r == nil {
		return
	}
	responseResultPool.Put(r)
}
