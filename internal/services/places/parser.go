package places

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ternarybob/nearby/internal/models"
)

var payloadValidator = newPayloadValidator()

// newPayloadValidator reports failed fields by their json names
func newPayloadValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// detailPayload mirrors the get_place response body
type detailPayload struct {
	Place *placePayload `json:"place" validate:"required"`
}

type placePayload struct {
	ID           *string              `json:"id" validate:"required"`
	Name         *string              `json:"name" validate:"required"`
	CountryCode  string               `json:"countryCode"`
	ContactInfo  *contactInfoPayload  `json:"contactInfo"`
	Address      *addressPayload      `json:"address" validate:"required"`
	OpeningHours *openingHoursPayload `json:"openingHours"`
	Geometry     *geometryPayload     `json:"geometry" validate:"required"`
}

type contactInfoPayload struct {
	PhoneNumber *struct {
		PhoneNumber string `json:"phoneNumber"`
	} `json:"phoneNumber"`
}

type addressPayload struct {
	Address1   string `json:"address1"`
	Locality   string `json:"locality"`
	Region     string `json:"region"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type openingHoursPayload struct {
	DayHours []dayHoursPayload `json:"dayHours"`
	TimeZone string            `json:"timeZone"`
}

type dayHoursPayload struct {
	Day   string            `json:"day"`
	Hours []intervalPayload `json:"hours"`
}

type intervalPayload struct {
	Start *timePayload `json:"start"`
	End   *timePayload `json:"end"`
}

type timePayload struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

type geometryPayload struct {
	Centroid *struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"centroid" validate:"required"`
}

// ParsePlace converts a get_place response body into a PlaceInfo labelled with
// category. Optional fields missing from the payload are filled with empty
// defaults; a payload that is not JSON or lacks id, name, address or centroid
// yields a *ParseError. Present but empty id or name values are accepted.
func ParsePlace(payload []byte, category string) (*models.PlaceInfo, error) {
	var body detailPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, &ParseError{Reason: "invalid JSON", Err: err}
	}

	if err := payloadValidator.Struct(&body); err != nil {
		placeID := ""
		if body.Place != nil && body.Place.ID != nil {
			placeID = *body.Place.ID
		}
		return nil, &ParseError{PlaceID: placeID, Reason: "missing " + missingFields(err)}
	}

	p := body.Place
	info := &models.PlaceInfo{
		PlaceID:  *p.ID,
		Category: category,
		Name:     *p.Name,
		Address: models.Address{
			StreetAddress: p.Address.Address1,
			Locality:      p.Address.Locality,
			Region:        p.Address.Region,
			PostalCode:    p.Address.PostalCode,
			Country:       p.Address.Country,
			CountryCode:   p.CountryCode,
		},
		OpeningHours: parseOpeningHours(p.OpeningHours),
		Centroid: models.Coordinate{
			Latitude:  p.Geometry.Centroid.Lat,
			Longitude: p.Geometry.Centroid.Lng,
		},
	}
	if p.ContactInfo != nil && p.ContactInfo.PhoneNumber != nil {
		info.PhoneNumber = p.ContactInfo.PhoneNumber.PhoneNumber
	}

	return info, nil
}

func parseOpeningHours(oh *openingHoursPayload) models.OpeningHours {
	result := models.OpeningHours{DayHours: []models.DayHours{}}
	if oh == nil {
		return result
	}

	result.TimeZone = oh.TimeZone
	for _, dh := range oh.DayHours {
		day := models.DayHours{Day: dh.Day, Hours: make([]models.TimeInterval, 0, len(dh.Hours))}
		for _, h := range dh.Hours {
			day.Hours = append(day.Hours, models.TimeInterval{
				StartHour: toTime(h.Start),
				EndHour:   toTime(h.End),
			})
		}
		result.DayHours = append(result.DayHours, day)
	}
	return result
}

func toTime(t *timePayload) models.Time {
	if t == nil {
		return models.Time{}
	}
	return models.Time{Hour: t.Hour, Minute: t.Minute}
}

// missingFields lists the json paths of failed required checks, e.g. "place.name"
func missingFields(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.TrimPrefix(fe.Namespace(), "detailPayload."))
	}
	return strings.Join(fields, ", ")
}
