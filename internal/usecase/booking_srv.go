package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"studio-booking/internal/data/entity"
	"studio-booking/internal/data/repository"
	"studio-booking/internal/dto/request"
	"studio-booking/internal/dto/response"
	"studio-booking/pkg/utils"

	"go.uber.org/zap"
)

// CouponSettingPrefix prefixes system_settings keys that hold a coupon's
// percentage, e.g. "coupon:WEDDING10" = "10".
const CouponSettingPrefix = "coupon:"

type BookingService interface {
	CreateBooking(ctx context.Context, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	GetBooking(ctx context.Context, id string) (*response.BookingResponse, error)
	ListBookings(ctx context.Context, req *request.ListBookingsRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	SearchBookings(ctx context.Context, query string) ([]response.BookingResponse, error)

	// Lifecycle
	RescheduleBooking(ctx context.Context, id string, req *request.RescheduleBookingRequest) (*response.BookingResponse, error)
	RecordPayment(ctx context.Context, id string, req *request.PaymentRequest) (*response.BookingResponse, error)
	CancelBooking(ctx context.Context, id string) error
	CompleteBooking(ctx context.Context, id string) error
	DeleteBooking(ctx context.Context, id string) error
}

type bookingService struct {
	repo *repository.Repository
	log  *zap.Logger
	now  func() time.Time
}

func NewBookingService(repo *repository.Repository, log *zap.Logger) BookingService {
	return &bookingService{
		repo: repo,
		log:  log.With(zap.String("service", "booking")),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// quote is a booking priced from the catalog.
type quote struct {
	basePrice      int64
	baseDiscount   int64
	addonsTotal    int64
	couponDiscount int64
	couponCode     *string
	addons         []entity.BookingAddon
}

func (q quote) total() int64 {
	total := q.basePrice - q.baseDiscount + q.addonsTotal - q.couponDiscount
	if total < 0 {
		return 0
	}
	return total
}

func (s *bookingService) CreateBooking(ctx context.Context, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	date := normalizeDate(req.Date)

	if req.PhotographerID != nil {
		staff, err := s.repo.User.FindByID(ctx, *req.PhotographerID)
		if err != nil {
			return nil, fmt.Errorf("find photographer: %w", err)
		}
		if staff == nil || staff.Role != entity.RolePhotographer {
			return nil, fmt.Errorf("%w: %s", ErrUnknownStaff, *req.PhotographerID)
		}
	}

	q, err := s.price(ctx, req)
	if err != nil {
		return nil, err
	}

	available, err := s.repo.Booking.CheckSlotAvailability(ctx, date, "")
	if err != nil {
		return nil, fmt.Errorf("check slot: %w", err)
	}
	if !available {
		return nil, fmt.Errorf("%w: %s", ErrSlotUnavailable, date.Format(time.RFC3339))
	}

	serviceID := req.ServiceID
	booking := &entity.Booking{
		Status: entity.BookingStatusActive,
		Customer: entity.Customer{
			Name:      strings.TrimSpace(req.CustomerName),
			WhatsApp:  strings.TrimSpace(req.CustomerWhatsApp),
			Category:  req.CustomerCategory,
			ServiceID: &serviceID,
		},
		Booking: entity.BookingDetails{
			Date:         date,
			Notes:        req.Notes,
			LocationLink: req.LocationLink,
		},
		Finance: entity.Finance{
			TotalPrice:       q.total(),
			Payments:         []entity.Payment{},
			ServiceBasePrice: &q.basePrice,
			BaseDiscount:     &q.baseDiscount,
			AddonsTotal:      &q.addonsTotal,
			CouponDiscount:   &q.couponDiscount,
			CouponCode:       q.couponCode,
		},
		PhotographerID: req.PhotographerID,
		Addons:         q.addons,
	}
	if req.DownPayment != nil {
		booking.Finance.Payments = append(booking.Finance.Payments, s.toPayment(req.DownPayment))
	}

	if err := s.repo.Booking.CreateBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("create booking: %w", s.slotConflict(ctx, err, date, ""))
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID),
		zap.Time("date", date),
		zap.Int64("total_price", booking.Finance.TotalPrice),
	)

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

// price loads the service and addon prices from the catalog and applies the
// standing discount and the coupon. Client supplied prices are never used.
func (s *bookingService) price(ctx context.Context, req *request.CreateBookingRequest) (quote, error) {
	var q quote

	service, err := s.repo.Service.FindByID(ctx, req.ServiceID)
	if err != nil {
		return q, fmt.Errorf("find service: %w", err)
	}
	if service == nil || !service.IsActive {
		return q, fmt.Errorf("%w: %s", ErrUnknownService, req.ServiceID)
	}
	q.basePrice = service.BasePrice
	q.baseDiscount = service.BasePrice - service.NetPrice()

	if len(req.Addons) > 0 {
		ids := make([]string, len(req.Addons))
		for i, line := range req.Addons {
			ids[i] = line.AddonID
		}
		catalog, err := s.repo.Addon.FindByIDs(ctx, ids)
		if err != nil {
			return q, fmt.Errorf("find addons: %w", err)
		}

		for _, line := range req.Addons {
			addon, ok := catalog[line.AddonID]
			if !ok || !addon.IsActive {
				return q, fmt.Errorf("%w: %s", ErrUnknownAddon, line.AddonID)
			}
			item := entity.BookingAddon{
				AddonID:        addon.ID,
				AddonName:      addon.Name,
				Quantity:       line.Quantity,
				PriceAtBooking: addon.Price,
			}
			q.addons = append(q.addons, item)
			q.addonsTotal += item.Subtotal()
		}
	}

	if req.CouponCode != nil && strings.TrimSpace(*req.CouponCode) != "" {
		code := strings.ToUpper(strings.TrimSpace(*req.CouponCode))
		setting, err := s.repo.Settings.Get(ctx, CouponSettingPrefix+code)
		if err != nil {
			return q, fmt.Errorf("find coupon: %w", err)
		}
		if setting == nil {
			return q, fmt.Errorf("%w: %s", ErrUnknownCoupon, code)
		}

		percent := utils.ParseInt(strings.TrimSpace(setting.Value), 0)
		if percent > 100 {
			percent = 100
		}
		subtotal := q.basePrice - q.baseDiscount + q.addonsTotal
		q.couponDiscount = subtotal * int64(percent) / 100
		q.couponCode = &code
	}

	return q, nil
}

func (s *bookingService) GetBooking(ctx context.Context, id string) (*response.BookingResponse, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) ListBookings(ctx context.Context, req *request.ListBookingsRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 {
		req.PerPage = utils.DefaultPageSize
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, fmt.Errorf("%w: end_date is before start_date", ErrValidation)
	}

	filter := repository.BookingFilter{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Page:      req.Page,
		Limit:     req.Limit(),
	}
	if req.Status != "" {
		filter.Status = entity.ParseBookingStatus(req.Status)
	}

	bookings, err := s.repo.Booking.ReadData(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	total, err := s.repo.Booking.CountBookings(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}

	return response.NewPaginatedResponse(response.BookingsToResponse(bookings), req.Page, req.Limit(), total), nil
}

func (s *bookingService) SearchBookings(ctx context.Context, query string) ([]response.BookingResponse, error) {
	if strings.TrimSpace(query) == "" {
		return []response.BookingResponse{}, nil
	}

	bookings, err := s.repo.Booking.SearchBookings(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search bookings: %w", err)
	}
	return response.BookingsToResponse(bookings), nil
}

// RescheduleBooking moves a booking to a free slot, marks it Rescheduled and
// appends the move to its history.
func (s *bookingService) RescheduleBooking(ctx context.Context, id string, req *request.RescheduleBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.Status.BlocksSlot() {
		return nil, fmt.Errorf("%w: cannot reschedule a %s booking", ErrInvalidTransition, booking.Status)
	}

	newDate := normalizeDate(req.Date)
	available, err := s.repo.Booking.CheckSlotAvailability(ctx, newDate, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("check slot: %w", err)
	}
	if !available {
		return nil, fmt.Errorf("%w: %s", ErrSlotUnavailable, newDate.Format(time.RFC3339))
	}

	oldDate := booking.Booking.Date
	booking.Booking.Date = newDate
	booking.Status = entity.BookingStatusRescheduled

	if err := s.repo.Booking.UpdateBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("reschedule booking: %w", s.slotConflict(ctx, err, newDate, booking.ID))
	}
	if err := s.repo.Booking.AddRescheduleHistory(ctx, booking.ID, oldDate, newDate, req.Reason); err != nil {
		return nil, fmt.Errorf("record reschedule history: %w", err)
	}

	booking.RescheduleHistory = append(booking.RescheduleHistory, entity.RescheduleHistory{
		OldDate:       oldDate,
		NewDate:       newDate,
		RescheduledAt: s.now(),
		Reason:        req.Reason,
	})

	s.log.Info("Booking rescheduled",
		zap.String("booking_id", booking.ID),
		zap.Time("old_date", oldDate),
		zap.Time("new_date", newDate),
	)

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

// slotConflict reports ErrSlotUnavailable when a write failed on a
// constraint because another booking took date after the slot check.
func (s *bookingService) slotConflict(ctx context.Context, err error, date time.Time, excludeID string) error {
	if repository.CodeOf(err) != repository.CodeConstraintViolation {
		return err
	}
	available, checkErr := s.repo.Booking.CheckSlotAvailability(ctx, date, excludeID)
	if checkErr != nil || available {
		return err
	}
	s.log.Info("Slot taken concurrently", zap.Time("date", date))
	return fmt.Errorf("%w: %s", ErrSlotUnavailable, date.Format(time.RFC3339))
}

// RecordPayment appends a payment. The full list is written back, so the
// stored set always equals what the booking carries.
func (s *bookingService) RecordPayment(ctx context.Context, id string, req *request.PaymentRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status == entity.BookingStatusCancelled {
		return nil, fmt.Errorf("%w: booking is cancelled", ErrInvalidTransition)
	}

	booking.Finance.Payments = append(booking.Finance.Payments, s.toPayment(req))
	if err := s.repo.Booking.UpdateBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}

	if booking.Finance.Overpaid() {
		s.log.Warn("Booking is overpaid",
			zap.String("booking_id", booking.ID),
			zap.Int64("total_price", booking.Finance.TotalPrice),
			zap.Int64("paid", booking.Finance.Paid()),
		)
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, id string) error {
	return s.transition(ctx, id, entity.BookingStatusCancelled)
}

func (s *bookingService) CompleteBooking(ctx context.Context, id string) error {
	return s.transition(ctx, id, entity.BookingStatusCompleted)
}

func (s *bookingService) DeleteBooking(ctx context.Context, id string) error {
	if err := s.repo.Booking.DeleteBooking(ctx, id); err != nil {
		if repository.CodeOf(err) == repository.CodeNotFound {
			return fmt.Errorf("%w: %s", ErrBookingNotFound, id)
		}
		return fmt.Errorf("delete booking: %w", err)
	}
	return nil
}

// transition moves a slot-holding booking to a terminal status.
func (s *bookingService) transition(ctx context.Context, id string, to entity.BookingStatus) error {
	booking, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !booking.Status.BlocksSlot() {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, booking.Status, to)
	}

	from := booking.Status
	booking.Status = to
	if err := s.repo.Booking.UpdateBooking(ctx, booking); err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}

	s.log.Info("Booking status changed",
		zap.String("booking_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return nil
}

func (s *bookingService) load(ctx context.Context, id string) (*entity.Booking, error) {
	booking, err := s.repo.Booking.ReadBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: %s", ErrBookingNotFound, id)
	}
	return booking, nil
}

func (s *bookingService) toPayment(req *request.PaymentRequest) entity.Payment {
	date := req.Date
	if date.IsZero() {
		date = s.now()
	}
	backend := entity.StorageBackend(req.StorageBackend)
	if backend == "" {
		backend = entity.StorageBackendLocal
	}
	return entity.Payment{
		Date:           normalizeDate(date),
		Amount:         req.Amount,
		Note:           req.Note,
		ProofFilename:  req.ProofFilename,
		ProofURL:       req.ProofURL,
		StorageBackend: backend,
	}
}

// normalizeDate drops precision the store does not keep so exact slot
// comparisons agree with what was written.
func normalizeDate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
