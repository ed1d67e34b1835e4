package mocks

import (
	"context"

	"github.com/DanielPopoola/atelier-storefront/internal/core/domain"
	mock "github.com/stretchr/testify/mock"
)

// MockPaymentGateway is a testify mock of ports.PaymentGateway.
type MockPaymentGateway struct {
	mock.Mock
}

type MockPaymentGateway_Expecter struct {
	mock *mock.Mock
}

func (_m *MockPaymentGateway) EXPECT() *MockPaymentGateway_Expecter {
	return &MockPaymentGateway_Expecter{mock: &_m.Mock}
}

// Charge provides a mock function with given fields: ctx, req
func (_m *MockPaymentGateway) Charge(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResult, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for Charge")
	}

	var r0 domain.PaymentResult
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, domain.PaymentRequest) (domain.PaymentResult, error)); ok {
		return rf(ctx, req)
	}
	if rf, ok := ret.Get(0).(func(context.Context, domain.PaymentRequest) domain.PaymentResult); ok {
		r0 = rf(ctx, req)
	} else {
		r0 = ret.Get(0).(domain.PaymentResult)
	}

	if rf, ok := ret.Get(1).(func(context.Context, domain.PaymentRequest) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

type MockPaymentGateway_Charge_Call struct {
	*mock.Call
}

func (_e *MockPaymentGateway_Expecter) Charge(ctx interface{}, req interface{}) *MockPaymentGateway_Charge_Call {
	return &MockPaymentGateway_Charge_Call{Call: _e.mock.On("Charge", ctx, req)}
}

func (_c *MockPaymentGateway_Charge_Call) Run(run func(ctx context.Context, req domain.PaymentRequest)) *MockPaymentGateway_Charge_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(domain.PaymentRequest))
	})
	return _c
}

func (_c *MockPaymentGateway_Charge_Call) Return(_a0 domain.PaymentResult, _a1 error) *MockPaymentGateway_Charge_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

func (_c *MockPaymentGateway_Charge_Call) Once() *MockPaymentGateway_Charge_Call {
	_c.Call.Once()
	return _c
}

func (_c *MockPaymentGateway_Charge_Call) Times(i int) *MockPaymentGateway_Charge_Call {
	_c.Call.Times(i)
	return _c
}

// Verify provides a mock function with given fields: ctx, requestReference
func (_m *MockPaymentGateway) Verify(ctx context.Context, requestReference string) (domain.PaymentResult, error) {
	ret := _m.Called(ctx, requestReference)

	if len(ret) == 0 {
		panic("no return value specified for Verify")
	}

	var r0 domain.PaymentResult
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (domain.PaymentResult, error)); ok {
		return rf(ctx, requestReference)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) domain.PaymentResult); ok {
		r0 = rf(ctx, requestReference)
	} else {
		r0 = ret.Get(0).(domain.PaymentResult)
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, requestReference)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

type MockPaymentGateway_Verify_Call struct {
	*mock.Call
}

func (_e *MockPaymentGateway_Expecter) Verify(ctx interface{}, requestReference interface{}) *MockPaymentGateway_Verify_Call {
	return &MockPaymentGateway_Verify_Call{Call: _e.mock.On("Verify", ctx, requestReference)}
}

func (_c *MockPaymentGateway_Verify_Call) Return(_a0 domain.PaymentResult, _a1 error) *MockPaymentGateway_Verify_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

func (_c *MockPaymentGateway_Verify_Call) Once() *MockPaymentGateway_Verify_Call {
	_c.Call.Once()
	return _c
}

func (_c *MockPaymentGateway_Verify_Call) Times(i int) *MockPaymentGateway_Verify_Call {
	_c.Call.Times(i)
	return _c
}

// NewMockPaymentGateway registers cleanup that asserts every expectation was met.
func NewMockPaymentGateway(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPaymentGateway {
	m := &MockPaymentGateway{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
