package apitest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JosephMusya/majiup-tools/internal/pkg/application/majiup"
	"github.com/JosephMusya/majiup-tools/internal/pkg/application/wazigate"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
)

// Case is a single independent check against the tank API. tankID is the id
// of the tank created by the group's fixture.
type Case struct {
	Name  string
	Check func(ctx context.Context, api majiup.Client, tankID string) error
}

type Group struct {
	Name  string
	Cases []Case
}

type Result struct {
	Group    string
	Name     string
	Duration time.Duration
	Err      error
}

func (r Result) Passed() bool {
	return r.Err == nil
}

type Report struct {
	Started  time.Time
	Duration time.Duration
	Results  []Result
}

func (r Report) Failures() int {
	n := 0
	for _, res := range r.Results {
		if !res.Passed() {
			n++
		}
	}
	return n
}

type Suite struct {
	api      majiup.Client
	gateway  wazigate.Gateway
	groups   []Group
	teardown bool
}

type Option func(*Suite)

// WithTeardown deletes each fixture tank once its group has run.
func WithTeardown() Option {
	return func(s *Suite) {
		s.teardown = true
	}
}

// WithGroups replaces the default groups.
func WithGroups(groups ...Group) Option {
	return func(s *Suite) {
		s.groups = groups
	}
}

func New(api majiup.Client, gateway wazigate.Gateway, opts ...Option) *Suite {
	s := &Suite{
		api:     api,
		gateway: gateway,
		groups:  DefaultGroups(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run executes every group. Each group gets a freshly created tank whose id is
// passed to all of its cases, so no case depends on the order the API lists
// tanks in.
func (s *Suite) Run(ctx context.Context) Report {
	logger := logging.GetFromContext(ctx)

	report := Report{Started: time.Now()}

	for _, g := range s.groups {
		log := logger.With().Str("group", g.Name).Logger()

		tankID, err := s.gateway.CreateDevice(ctx, TestingTank())
		if err != nil {
			log.Error().Err(err).Msg("fixture setup failed")
			for _, c := range g.Cases {
				report.Results = append(report.Results, Result{
					Group: g.Name,
					Name:  c.Name,
					Err:   fmt.Errorf("fixture setup failed: %w", err),
				})
			}
			continue
		}

		log = log.With().Str("tank_id", tankID).Logger()
		log.Info().Msg("running group")

		for _, c := range g.Cases {
			start := time.Now()
			err := c.Check(ctx, s.api, tankID)

			res := Result{Group: g.Name, Name: c.Name, Duration: time.Since(start), Err: err}
			report.Results = append(report.Results, res)

			if err != nil {
				log.Error().Err(err).Str("case", c.Name).Msg("FAIL")
			} else {
				log.Info().Str("case", c.Name).Msg("ok")
			}
		}

		if s.teardown {
			if err := s.gateway.DeleteDevice(ctx, tankID); err != nil {
				log.Warn().Err(err).Msg("fixture teardown failed")
			}
		}
	}

	report.Duration = time.Since(report.Started)

	return report
}

func DefaultGroups() []Group {
	return []Group{TankGroup(), MetaGroup(), SensorGroup(), PumpGroup()}
}

func TankGroup() Group {
	return Group{
		Name: "Tanks",
		Cases: []Case{
			{"GetTanks", func(ctx context.Context, api majiup.Client, _ string) error {
				_, err := api.Tanks(ctx)
				return err
			}},
			{"GetTankByID", func(ctx context.Context, api majiup.Client, tankID string) error {
				_, err := api.Tank(ctx, tankID)
				return err
			}},
			{"GetEveryListedTankByID", getEveryListedTank},
			{"GetSensorsInTank", func(ctx context.Context, api majiup.Client, tankID string) error {
				_, err := api.TankSensors(ctx, tankID)
				return err
			}},
			{"GetPumpsInTank", func(ctx context.Context, api majiup.Client, tankID string) error {
				_, err := api.Pumps(ctx, tankID)
				return err
			}},
			{"GetSensorHistory", func(ctx context.Context, api majiup.Client, tankID string) error {
				_, err := api.TankInfo(ctx, tankID)
				return err
			}},
			{"ChangeTankName", func(ctx context.Context, api majiup.Client, tankID string) error {
				return api.ChangeName(ctx, tankID, TestTankName)
			}},
		},
	}
}

func MetaGroup() Group {
	return Group{
		Name: "TankMetaData",
		Cases: []Case{
			{"GetTankMetaField", func(ctx context.Context, api majiup.Client, tankID string) error {
				_, err := api.Meta(ctx, tankID)
				return err
			}},
			{"ChangeTankMetaField", func(ctx context.Context, api majiup.Client, tankID string) error {
				msg, err := api.UpdateMeta(ctx, tankID, UpdatedMeta())
				if err != nil {
					return err
				}
				if msg.Message != majiup.MetaUpdatedMessage {
					return fmt.Errorf("expected message %q, got %q", majiup.MetaUpdatedMessage, msg.Message)
				}
				return nil
			}},
		},
	}
}

func SensorGroup() Group {
	g := Group{Name: "Sensors"}

	for _, p := range majiup.SensorPaths {
		p := p
		g.Cases = append(g.Cases,
			Case{fmt.Sprintf("Get_%s_Data", p), func(ctx context.Context, api majiup.Client, tankID string) error {
				_, err := api.Sensor(ctx, tankID, p)
				return err
			}},
			Case{fmt.Sprintf("Get_%s_Value", p), func(ctx context.Context, api majiup.Client, tankID string) error {
				_, err := api.SensorValue(ctx, tankID, p)
				return err
			}},
			Case{fmt.Sprintf("Get_%s_Values", p), func(ctx context.Context, api majiup.Client, tankID string) error {
				_, err := api.SensorValues(ctx, tankID, p)
				return err
			}},
		)
	}

	return g
}

func PumpGroup() Group {
	return Group{
		Name: "Pump",
		Cases: []Case{
			{"GetPumpState", func(ctx context.Context, api majiup.Client, tankID string) error {
				_, err := api.PumpState(ctx, tankID)
				return err
			}},
			{"GetPumpStates", func(ctx context.Context, api majiup.Client, tankID string) error {
				_, err := api.PumpStates(ctx, tankID)
				return err
			}},
			{"ChangePumpState", func(ctx context.Context, api majiup.Client, tankID string) error {
				if err := api.SetPumpState(ctx, tankID, true); err != nil {
					return fmt.Errorf("turning pump on: %w", err)
				}
				if err := api.SetPumpState(ctx, tankID, false); err != nil {
					return fmt.Errorf("turning pump off: %w", err)
				}
				return nil
			}},
		},
	}
}

func getEveryListedTank(ctx context.Context, api majiup.Client, _ string) error {
	tanks, err := api.Tanks(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, t := range tanks {
		if _, err := api.Tank(ctx, t.ID); err != nil {
			errs = append(errs, fmt.Errorf("tank %s: %w", t.ID, err))
		}
	}

	return errors.Join(errs...)
}
