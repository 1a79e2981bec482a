package httpapi

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-telemetry/internal/docstore"
	"github.com/i474232898/weather-telemetry/internal/weather"
)

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	api := app.Group("/api")

	// ----- countries -----
	countries := api.Group("/countries")

	countries.Post("/", func(c *fiber.Ctx) error {
		f, err := bindFields(c)
		if err != nil {
			return err
		}
		id, err := service.CreateCountry(c.UserContext(), f)
		if err != nil {
			return err
		}
		return created(c, id)
	})

	countries.Get("/", func(c *fiber.Ctx) error {
		list, err := service.ListCountries(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(list)
	})

	countries.Put("/:id", func(c *fiber.Ctx) error {
		id, err := weather.ParseID(c.Params("id"))
		if err != nil {
			return err
		}
		f, err := bindFields(c)
		if err != nil {
			return err
		}
		if _, err := service.UpdateCountry(c.UserContext(), id, f); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"id": id.Hex()})
	})

	countries.Delete("/:id", func(c *fiber.Ctx) error {
		id, err := deleteID(c)
		if err != nil {
			return err
		}
		if err := service.DeleteCountry(c.UserContext(), id); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "country deleted"})
	})

	// ----- cities -----
	cities := api.Group("/cities")

	cities.Post("/", func(c *fiber.Ctx) error {
		f, err := bindFields(c)
		if err != nil {
			return err
		}
		id, err := service.CreateCity(c.UserContext(), f)
		if err != nil {
			return err
		}
		return created(c, id)
	})

	cities.Get("/", func(c *fiber.Ctx) error {
		var countryID *docstore.ID
		if raw := c.Query("idTara"); raw != "" {
			id, err := weather.ParseID(raw)
			if err != nil {
				return err
			}
			countryID = &id
		}
		list, err := service.ListCities(c.UserContext(), countryID)
		if err != nil {
			return err
		}
		return c.JSON(list)
	})

	cities.Get("/country/:id", func(c *fiber.Ctx) error {
		id, err := weather.ParseID(c.Params("id"))
		if err != nil {
			return err
		}
		list, err := service.ListCities(c.UserContext(), &id)
		if err != nil {
			return err
		}
		return c.JSON(list)
	})

	cities.Put("/:id", func(c *fiber.Ctx) error {
		id, err := weather.ParseID(c.Params("id"))
		if err != nil {
			return err
		}
		f, err := bindFields(c)
		if err != nil {
			return err
		}
		if _, err := service.UpdateCity(c.UserContext(), id, f); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"id": id.Hex()})
	})

	cities.Delete("/:id", func(c *fiber.Ctx) error {
		id, err := deleteID(c)
		if err != nil {
			return err
		}
		if err := service.DeleteCity(c.UserContext(), id); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "city deleted"})
	})

	// ----- temperatures -----
	temps := api.Group("/temperatures")

	temps.Post("/", func(c *fiber.Ctx) error {
		f, err := bindFields(c)
		if err != nil {
			return err
		}
		id, err := service.CreateReading(c.UserContext(), f)
		if err != nil {
			return err
		}
		return created(c, id)
	})

	temps.Get("/", func(c *fiber.Ctx) error {
		list, err := service.ListReadings(c.UserContext(), weather.ReadingParams{
			Lat:   queryFloat(c, "lat"),
			Lon:   queryFloat(c, "lon"),
			From:  c.Query("from"),
			Until: c.Query("until"),
		})
		if err != nil {
			return err
		}
		return c.JSON(list)
	})

	temps.Get("/cities/:id", func(c *fiber.Ctx) error {
		id, err := weather.ParseID(c.Params("id"))
		if err != nil {
			return err
		}
		list, err := service.ListCityReadings(c.UserContext(), id, c.Query("from"), c.Query("until"))
		if err != nil {
			return err
		}
		return c.JSON(list)
	})

	temps.Get("/countries/:id", func(c *fiber.Ctx) error {
		id, err := weather.ParseID(c.Params("id"))
		if err != nil {
			return err
		}
		list, err := service.ListCountryReadings(c.UserContext(), id, c.Query("from"), c.Query("until"))
		if err != nil {
			return err
		}
		return c.JSON(list)
	})

	temps.Put("/:id", func(c *fiber.Ctx) error {
		id, err := weather.ParseID(c.Params("id"))
		if err != nil {
			return err
		}
		f, err := bindFields(c)
		if err != nil {
			return err
		}
		if _, err := service.UpdateReading(c.UserContext(), id, f); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"id": id.Hex()})
	})

	temps.Delete("/:id", func(c *fiber.Ctx) error {
		id, err := deleteID(c)
		if err != nil {
			return err
		}
		if err := service.DeleteReading(c.UserContext(), id); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "temperature deleted"})
	})
}

func created(c *fiber.Ctx, id docstore.ID) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id.Hex()})
}

// bindFields decodes a JSON object body.
func bindFields(c *fiber.Ctx) (weather.Fields, error) {
	var f weather.Fields
	if err := c.BodyParser(&f); err != nil || f == nil {
		return nil, &weather.Error{Kind: weather.KindValidation, Msg: "request body must be a JSON object", Err: err}
	}
	return f, nil
}

// deleteID parses the path identifier of a delete request. A malformed
// identifier on delete is reported as not found.
func deleteID(c *fiber.Ctx) (docstore.ID, error) {
	id, err := docstore.ParseID(c.Params("id"))
	if err != nil {
		return docstore.NilID, &weather.Error{Kind: weather.KindNotFound, Msg: "invalid identifier format", Err: err}
	}
	return id, nil
}

// queryFloat returns the named query parameter as a float. Absent or
// unparsable values are treated as not given.
func queryFloat(c *fiber.Ctx, key string) *float64 {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
