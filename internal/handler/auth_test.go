package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegisterReq() registerReq {
	dob := time.Now().UTC().AddDate(-17, 0, 0)
	return registerReq{
		FullName:    "Jamie Doe",
		Email:       "jamie@example.com",
		DateOfBirth: dob.Format("2006-01-02"),
		Password:    "secret123",
	}
}

func TestValidateRegisterNormalizesInput(t *testing.T) {
	req := validRegisterReq()
	req.FullName = "  Jamie Doe  "
	req.Email = "  Jamie@Example.COM "

	dob, errs := validateRegister(&req)
	require.Empty(t, errs)
	assert.Equal(t, "Jamie Doe", req.FullName)
	assert.Equal(t, "jamie@example.com", req.Email)
	assert.False(t, dob.IsZero())
}

func TestValidateRegisterFieldErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*registerReq)
		want   string
	}{
		{"short name", func(r *registerReq) { r.FullName = "J" }, "full name must be between 2 and 100 characters"},
		{"no at sign", func(r *registerReq) { r.Email = "jamie.example.com" }, "please provide a valid email address"},
		{"double at sign", func(r *registerReq) { r.Email = "a@b@c.com" }, "please provide a valid email address"},
		{"short password", func(r *registerReq) { r.Password = "12345" }, "password must be at least 6 characters long"},
		{"bad dob format", func(r *registerReq) { r.DateOfBirth = "15/09/2009" }, "please provide a valid date of birth (YYYY-MM-DD)"},
		{"future dob", func(r *registerReq) {
			r.DateOfBirth = time.Now().UTC().AddDate(1, 0, 0).Format("2006-01-02")
		}, "date of birth must be in the past"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRegisterReq()
			tc.mutate(&req)
			_, errs := validateRegister(&req)
			assert.Contains(t, errs, tc.want)
		})
	}
}

func TestValidateRegisterCollectsAllErrors(t *testing.T) {
	req := registerReq{FullName: "J", Email: "nope", DateOfBirth: "soon", Password: "123"}
	_, errs := validateRegister(&req)
	assert.Len(t, errs, 4)
}
