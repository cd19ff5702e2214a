package download

import (
	"net/http"
	"reflect"

	"go.uber.org/mock/gomock"
)

// MockRoundTripper is a hand-maintained stand-in for what mockgen would
// generate for http.RoundTripper (mockgen isn't run as part of this
// build), used to exercise transport-level failures Fetch must wrap as a
// catalog.TransportError without standing up a real listener.
type MockRoundTripper struct {
	ctrl     *gomock.Controller
	recorder *MockRoundTripperMockRecorder
}

type MockRoundTripperMockRecorder struct {
	mock *MockRoundTripper
}

func NewMockRoundTripper(ctrl *gomock.Controller) *MockRoundTripper {
	m := &MockRoundTripper{ctrl: ctrl}
	m.recorder = &MockRoundTripperMockRecorder{m}
	return m
}

func (m *MockRoundTripper) EXPECT() *MockRoundTripperMockRecorder {
	return m.recorder
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RoundTrip", req)
	resp, _ := ret[0].(*http.Response)
	err, _ := ret[1].(error)
	return resp, err
}

func (mr *MockRoundTripperMockRecorder) RoundTrip(req interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RoundTrip",
		reflect.TypeOf((*MockRoundTripper)(nil).RoundTrip), req)
}
