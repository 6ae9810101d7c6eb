package service

import (
	"pgstay/pkg/model"
	"pgstay/pkg/statemachine"
)

type BookingAction string

const (
	BookingApprove BookingAction = "approve"
	BookingReject  BookingAction = "reject"
	BookingCancel  BookingAction = "cancel"
	BookingConvert BookingAction = "convert"
)

var BookingMachine = statemachine.New[model.BookingStatus, BookingAction]("booking").
	Allow(BookingApprove, model.BookingApproved, model.BookingPending).
	Allow(BookingReject, model.BookingRejected, model.BookingPending).
	Allow(BookingCancel, model.BookingCancelled, model.BookingPending, model.BookingApproved).
	Allow(BookingConvert, model.BookingConverted, model.BookingApproved).
	Reject(BookingApprove, "Only pending bookings can be approved").
	Reject(BookingReject, "Only pending bookings can be rejected").
	Reject(BookingCancel, "Only pending or approved bookings can be cancelled").
	Reject(BookingConvert, "Only approved bookings can be converted")
