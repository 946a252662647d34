package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/phpdave11/gofpdf"
	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"
	"github.com/tripdesk/pms-backend/internal/models"
)

// ItineraryLoader resolves a hydrated itinerary by id
type ItineraryLoader func(id uuid.UUID) (*models.ItineraryView, error)

// TripSheetService renders the printable trip sheet of an itinerary: one row
// per activity with venue, meal, transfer, driver and vehicle, plus a QR code
// identifying the itinerary.
type TripSheetService struct {
	load   ItineraryLoader
	logger *logrus.Logger
}

// NewTripSheetService creates a new trip sheet service
func NewTripSheetService(load ItineraryLoader, logger *logrus.Logger) *TripSheetService {
	return &TripSheetService{load: load, logger: logger}
}

// Render returns the PDF bytes and a download filename
func (s *TripSheetService) Render(id uuid.UUID) ([]byte, string, error) {
	view, err := s.load(id)
	if err != nil {
		return nil, "", err
	}

	pdf, err := buildTripSheetPDF(view)
	if err != nil {
		return nil, "", fmt.Errorf("failed to render trip sheet: %w", err)
	}

	groupCode := "itinerary"
	if view.Group != nil {
		groupCode = view.Group.Code
	}
	filename := fmt.Sprintf("trip-sheet-%s.pdf", safeFilenamePart(groupCode))

	s.logger.WithFields(logrus.Fields{
		"itinerary_id": id,
		"activities":   len(view.Activities),
		"bytes":        len(pdf),
	}).Info("Trip sheet rendered")

	return pdf, filename, nil
}

// TripSheetQRPayload is the text encoded in a trip sheet's QR code
func TripSheetQRPayload(view *models.ItineraryView) string {
	code := ""
	if view.Group != nil {
		code = view.Group.Code
	}
	return fmt.Sprintf("itinerary:%s:%s", view.ID, code)
}

func buildTripSheetPDF(view *models.ItineraryView) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Trip Sheet", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "TRIP SHEET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	header := []string{
		fmt.Sprintf("Group   : %s", groupLabel(view.Group)),
		fmt.Sprintf("Package : %s", packageLabel(view.Package)),
		fmt.Sprintf("Leader  : %s", userLabel(view.Leader)),
		fmt.Sprintf("Guide   : %s", userLabel(view.Guide)),
	}
	for _, line := range header {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}

	qrPNG, err := qrcode.Encode(TripSheetQRPayload(view), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	imageOpts := gofpdf.ImageOptions{ImageType: "png"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 245, 10, 35, 35, false, imageOpts, 0, "")

	pdf.Ln(6)
	widths := []float64{24, 50, 60, 18, 22, 45, 58}
	columns := []string{"Date", "Activity", "Accommodation", "Meal", "Transfer", "Driver", "Vehicle"}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, col := range columns {
		pdf.CellFormat(widths[i], 8, col, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, act := range view.Activities {
		row := []string{
			act.Date.Format("2006-01-02"),
			truncate(act.Name, 32),
			truncate(venueLabel(act.Booking), 40),
			safe(act.Meal),
			string(act.Transfer),
			truncate(userLabel(act.Driver), 28),
			truncate(vehicleLabel(act.Vehicle), 36),
		}
		for i, cell := range row {
			pdf.CellFormat(widths[i], 7, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func groupLabel(g *models.GroupSummary) string {
	if g == nil {
		return "-"
	}
	return fmt.Sprintf("%s (%d members)", g.Code, g.MemberCount)
}

func packageLabel(p *models.Package) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%s, %d days", p.Name, p.Duration)
}

func userLabel(u *models.UserSummary) string {
	if u == nil {
		return "-"
	}
	if u.Phone != nil && *u.Phone != "" {
		return fmt.Sprintf("%s (%s)", u.Name, *u.Phone)
	}
	return u.Name
}

func venueLabel(b *models.BookingView) string {
	if b == nil || b.Venue == nil {
		return "-"
	}
	return fmt.Sprintf("%s - %s", b.Venue.PropertyName, b.Venue.BranchName)
}

func vehicleLabel(v *models.VehicleView) string {
	if v == nil {
		return "-"
	}
	if v.Number != nil && *v.Number != "" {
		return fmt.Sprintf("%s %s", v.Model, *v.Number)
	}
	return v.Model
}

func safe(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "-"
	}
	return *s
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "~"
}

func safeFilenamePart(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "itinerary"
	}
	return b.String()
}
