package prediction

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flightdelay/flightdelay/internal/features"
	"github.com/flightdelay/flightdelay/internal/history"
	"github.com/flightdelay/flightdelay/internal/model"
	"github.com/flightdelay/flightdelay/internal/telemetry"
	"github.com/flightdelay/flightdelay/internal/weather"
)

// Distance sources.
const (
	DistanceManual  = "manual"
	DistanceTable   = "table"
	DistanceImputed = "imputed"
)

// ModelSource provides the current model bundle.
type ModelSource interface {
	Current() (*model.Bundle, error)
}

// DistanceLookup finds route mileage.
type DistanceLookup interface {
	Lookup(origin, destination string) (float64, bool)
}

// WeatherObserver observes weather at an airport.
type WeatherObserver interface {
	ObserveAirport(ctx context.Context, resolver weather.CoordinateResolver, code string, when time.Time) (weather.Observation, string)
}

// ServiceConfig holds configuration for the prediction service.
type ServiceConfig struct {
	Models    ModelSource
	Distances DistanceLookup
	Airports  weather.CoordinateResolver
	Weather   WeatherObserver
	History   *history.Ring
	Metrics   *telemetry.PredictionMetrics
	Logger    zerolog.Logger
}

// Service turns flight requests into delay predictions.
type Service struct {
	models    ModelSource
	distances DistanceLookup
	airports  weather.CoordinateResolver
	weather   WeatherObserver
	history   *history.Ring
	metrics   *telemetry.PredictionMetrics
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewService creates a new prediction service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		models:    cfg.Models,
		distances: cfg.Distances,
		airports:  cfg.Airports,
		weather:   cfg.Weather,
		history:   cfg.History,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger.With().Str("component", "prediction").Logger(),
		tracer:    telemetry.Tracer("github.com/flightdelay/flightdelay/internal/prediction"),
	}
}

// DistanceInfo reports the distance fed to the models.
type DistanceInfo struct {
	Miles  *float64 `json:"miles"`
	Source string   `json:"source"`
}

// DirectionOutlook is one direction's prediction for display.
type DirectionOutlook struct {
	DelayMinutes   float64 `json:"delayMinutes"`
	Probability    float64 `json:"probability"`
	ProbabilityPct float64 `json:"probabilityPct"`
	RiskLevel      string  `json:"riskLevel"`
	OnTime         bool    `json:"onTime"`
}

// StationWeather is the weather used at one end of the flight.
type StationWeather struct {
	Code        string              `json:"code"`
	Station     string              `json:"station"`
	Icon        string              `json:"icon"`
	Summary     string              `json:"summary"`
	Observation weather.Observation `json:"observation"`
}

// FlightPrediction is the full answer for a FlightRequest.
type FlightPrediction struct {
	Flight          string           `json:"flight"`
	Date            string           `json:"date"`
	DepartureTime   string           `json:"departureTime"`
	ArrivalTime     string           `json:"arrivalTime"`
	Distance        DistanceInfo     `json:"distance"`
	Prediction      Result           `json:"prediction"`
	Departure       DirectionOutlook `json:"departure"`
	Arrival         DirectionOutlook `json:"arrival"`
	OriginWeather   StationWeather   `json:"originWeather"`
	DestWeather     StationWeather   `json:"destinationWeather"`
	OnSchedule      bool             `json:"onSchedule"`
	Recommendations []string         `json:"recommendations"`
}

// PredictFlight validates req, gathers distance and weather, and predicts.
func (s *Service) PredictFlight(ctx context.Context, req FlightRequest) (*FlightPrediction, error) {
	ctx, span := s.tracer.Start(ctx, "prediction.PredictFlight")
	defer span.End()

	sched, err := req.normalize()
	if err != nil {
		span.SetStatus(codes.Error, "invalid request")
		return nil, err
	}

	flight := fmt.Sprintf("%s %s->%s", sched.airline, sched.origin, sched.destination)
	span.SetAttributes(attribute.String("flight", flight))

	// Fail before any weather call when no model is loaded.
	if _, err := s.models.Current(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	dist := s.resolveDistance(req.Distance, sched.origin, sched.destination)

	originObs, originStation := s.observe(ctx, "origin", sched.originWx, sched.departure)
	destObs, destStation := s.observe(ctx, "destination", sched.destinationWx, sched.arrival)

	rec := features.FlightRecord{
		Year:               features.Float(float64(sched.date.Year())),
		Month:              features.Float(float64(sched.date.Month())),
		Day:                features.Float(float64(sched.date.Day())),
		ScheduledDeparture: features.Float(sched.scheduledDeparture()),
		Airline:            sched.airline,
		OriginAirport:      sched.origin,
		DestinationAirport: sched.destination,
		Distance:           dist.Miles,
		DepartureDelay:     features.Float(0),
	}
	applyDestinationWeather(&rec, destObs)

	res, err := s.predict(ctx, rec, history.Entry{
		Flight:        flight,
		Date:          sched.date.Format(DateLayout),
		DepartureTime: sched.departure.Format(TimeLayout),
		ArrivalTime:   sched.arrival.Format(TimeLayout),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "prediction failed")
		return nil, err
	}

	out := &FlightPrediction{
		Flight:        flight,
		Date:          sched.date.Format(DateLayout),
		DepartureTime: sched.departure.Format(TimeLayout),
		ArrivalTime:   sched.arrival.Format(TimeLayout),
		Distance:      dist,
		Prediction:    res,
		Departure:     outlook(res.DepartureDelayMinutes, res.DepartureProbability),
		Arrival:       outlook(res.ArrivalDelayMinutes, res.ArrivalProbability),
		OriginWeather: stationWeather(sched.originWx, originStation, originObs),
		DestWeather:   stationWeather(sched.destinationWx, destStation, destObs),
	}
	out.Recommendations = Recommendations(res, originObs, destObs)
	out.OnSchedule = res.DepartureDelayMinutes <= SignificantDelayMinutes && res.ArrivalDelayMinutes <= SignificantDelayMinutes

	return out, nil
}

// PredictRecord prepares and scores an already assembled record.
func (s *Service) PredictRecord(ctx context.Context, rec features.FlightRecord) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "prediction.PredictRecord")
	defer span.End()

	res, err := s.predict(ctx, rec, history.Entry{
		Flight: fmt.Sprintf("%s %s->%s", rec.Airline, rec.OriginAirport, rec.DestinationAirport),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "prediction failed")
	}
	return res, err
}

func (s *Service) predict(ctx context.Context, rec features.FlightRecord, entry history.Entry) (Result, error) {
	bundle, err := s.models.Current()
	if err != nil {
		return Result{}, err
	}

	v := features.Prepare(rec, bundle.Preprocessors)
	res, err := Predict(v, bundle.Departure, bundle.Arrival)
	if err != nil {
		s.logger.Error().Err(err).Str("flight", entry.Flight).Msg("prediction failed")
		return Result{}, err
	}

	s.metrics.RecordPrediction(ctx, "departure", res.DepartureProbability, res.DepartureDelayMinutes,
		res.DepartureProbability > features.DelayProbabilityGate)
	s.metrics.RecordPrediction(ctx, "arrival", res.ArrivalProbability, res.ArrivalDelayMinutes,
		res.ArrivalProbability > features.DelayProbabilityGate)

	if s.history != nil {
		entry.Timestamp = time.Now().UTC()
		entry.DepartureDelayMinutes = res.DepartureDelayMinutes
		entry.DepartureProbability = res.DepartureProbability
		entry.ArrivalDelayMinutes = res.ArrivalDelayMinutes
		entry.ArrivalProbability = res.ArrivalProbability
		s.history.Add(entry)
	}

	s.logger.Debug().
		Str("flight", entry.Flight).
		Float64("departure_probability", res.DepartureProbability).
		Float64("departure_delay", res.DepartureDelayMinutes).
		Float64("arrival_probability", res.ArrivalProbability).
		Float64("arrival_delay", res.ArrivalDelayMinutes).
		Msg("prediction complete")

	return res, nil
}

// Recent returns up to limit of the latest predictions, oldest first.
func (s *Service) Recent(limit int) []history.Entry {
	if s.history == nil {
		return []history.Entry{}
	}
	return s.history.Recent(limit)
}

func (s *Service) resolveDistance(manual *float64, origin, destination string) DistanceInfo {
	if manual != nil {
		miles := *manual
		return DistanceInfo{Miles: &miles, Source: DistanceManual}
	}
	if s.distances != nil {
		if miles, ok := s.distances.Lookup(origin, destination); ok {
			return DistanceInfo{Miles: &miles, Source: DistanceTable}
		}
	}
	return DistanceInfo{Source: DistanceImputed}
}

func (s *Service) observe(ctx context.Context, role, code string, when time.Time) (weather.Observation, string) {
	if s.weather == nil {
		return weather.NeutralFallback, code
	}
	obs, station := s.weather.ObserveAirport(ctx, s.airports, code, when)
	if obs.Fallback {
		s.metrics.RecordWeatherFallback(ctx, role, obs.Source)
	}
	return obs, station
}

// applyDestinationWeather copies the destination observation into the dest_*
// model inputs.
func applyDestinationWeather(rec *features.FlightRecord, obs weather.Observation) {
	rec.DestTemperature = features.Float(obs.TemperatureF)
	rec.DestHumidity = features.Float(obs.HumidityPct)
	rec.DestPressure = features.Float(obs.PressureMb)
	rec.DestWindSpeed = features.Float(obs.WindMph)
	rec.DestCloudiness = features.Float(obs.CloudinessPct)
	rec.DestVisibility = features.Float(obs.VisibilityMi)
	rec.DestPrecipitation = features.Float(obs.PrecipIn)
	rec.DestSnow = features.Float(obs.SnowIn)
}

func outlook(delay, probability float64) DirectionOutlook {
	return DirectionOutlook{
		DelayMinutes:   delay,
		Probability:    probability,
		ProbabilityPct: probability * 100,
		RiskLevel:      RiskLevel(probability),
		OnTime:         delay <= 0,
	}
}

func stationWeather(code, station string, obs weather.Observation) StationWeather {
	return StationWeather{
		Code:        code,
		Station:     station,
		Icon:        obs.Icon(),
		Summary:     obs.Summary(),
		Observation: obs,
	}
}
