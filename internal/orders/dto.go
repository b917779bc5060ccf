package orders

import (
	"github.com/clinicore-erp/clinicore/internal/returns"
)

type customerReturnRequest struct {
	TestID int64  `json:"testId" validate:"omitempty,gt=0"`
	Note   string `json:"note" validate:"omitempty,max=500"`
}

type undoReturnRequest struct {
	TestID   int64  `json:"testId" validate:"omitempty,gt=0"`
	TestName string `json:"testName" validate:"omitempty,max=200"`
}

type orderResponse struct {
	ID            int64   `json:"id"`
	Token         string  `json:"token,omitempty"`
	PatientName   string  `json:"patientName,omitempty"`
	Tests         []int64 `json:"tests"`
	ReturnedTests []int64 `json:"returnedTests"`
	Status        string  `json:"status"`
}

type customerReturnResponse struct {
	Order  orderResponse  `json:"order"`
	Record returns.Record `json:"record"`
}

func toOrderResponse(o Order) orderResponse {
	tests := o.Tests
	if tests == nil {
		tests = []int64{}
	}
	returned := o.ReturnedTests
	if returned == nil {
		returned = []int64{}
	}
	return orderResponse{
		ID:            o.ID,
		Token:         o.Token,
		PatientName:   o.PatientName,
		Tests:         tests,
		ReturnedTests: returned,
		Status:        string(o.Status),
	}
}
