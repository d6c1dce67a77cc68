package handler

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// OK answers 200 with the json envelope.
func OK(c fiber.Ctx, message string, data interface{}) error {
	return c.JSON(envelope(true, message, data))
}

// Created answers 201 with the json envelope.
func Created(c fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(envelope(true, message, data))
}

// Fail answers status with an error envelope.
func Fail(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "message": message})
}

// Internal logs err and answers 500.
func Internal(c fiber.Ctx, err error, msg string) error {
	log.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg(msg)

	return Fail(c, fiber.StatusInternalServerError, MsgServerError)
}

func envelope(success bool, message string, data interface{}) fiber.Map {
	m := fiber.Map{"success": success}
	if message != "" {
		m["message"] = message
	}

	if data != nil {
		m["data"] = data
	}

	return m
}
