// Package http exposes the processor and user service over a fiber REST API.
package http

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"chessgame/internal/core"
	"chessgame/internal/game"
	"chessgame/internal/processor"
	"chessgame/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const rateLimitRate = 10 // req/sec

// HTTPHandler handles HTTP requests and routes them to the processor
type HTTPHandler struct {
	proc *processor.Processor
	svc  *service.Service
}

func NewHTTPHandler(proc *processor.Processor, svc *service.Service) *HTTPHandler {
	return &HTTPHandler{proc: proc, svc: svc}
}

func rateLimited(details string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
			Error:   "rate limit exceeded",
			Code:    core.ErrRateLimitExceeded,
			Details: details,
		})
	}
}

// clientKey prefers the first X-Forwarded-For hop over the peer address.
func clientKey(c *fiber.Ctx) string {
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}
	return c.IP()
}

func NewFiberApp(proc *processor.Processor, svc *service.Service, devMode bool) *fiber.App {
	h := NewHTTPHandler(proc, svc)

	// WriteTimeout leaves room for a full long-poll wait
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: service.WaitTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	})

	// Global middleware (order matters)
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Health check (no rate limit)
	app.Get("/health", h.Health)

	api := app.Group("/api/v1")
	validateToken := svc.ValidateToken

	auth := api.Group("/auth")
	auth.Post("/register", limiter.New(limiter.Config{
		Max:          5,
		Expiration:   time.Minute,
		KeyGenerator: clientKey,
		LimitReached: rateLimited("5 registrations per minute allowed"),
	}), h.RegisterHandler)
	auth.Post("/login", limiter.New(limiter.Config{
		Max:          10,
		Expiration:   time.Minute,
		KeyGenerator: clientKey,
		LimitReached: rateLimited("10 login attempts per minute allowed"),
	}), h.LoginHandler)
	auth.Get("/me", AuthRequired(validateToken), h.GetCurrentUserHandler)

	maxReq := rateLimitRate
	if devMode {
		maxReq = rateLimitRate * 2
	}
	games := api.Group("/games", limiter.New(limiter.Config{
		Max:          maxReq,
		Expiration:   time.Second,
		KeyGenerator: clientKey,
		LimitReached: rateLimited(fmt.Sprintf("%d requests per second allowed", maxReq)),
	}), contentTypeValidator, validationMiddleware, OptionalAuth(validateToken))

	games.Post("", h.CreateGame)
	games.Put("/:gameId/players", h.ConfigurePlayers)
	games.Get("/:gameId", h.GetGame)
	games.Delete("/:gameId", h.DeleteGame)
	games.Post("/:gameId/moves", h.MakeMove)
	games.Post("/:gameId/undo", h.UndoMove)
	games.Get("/:gameId/board", h.GetBoard)
	games.Get("/:gameId/legal", h.GetLegalMoves)
	games.Get("/:gameId/pgn", h.GetPGN)
	games.Get("/:gameId/wait", h.WaitForChange)

	return app
}

// contentTypeValidator ensures POST and PUT requests have application/json
func contentTypeValidator(c *fiber.Ctx) error {
	method := c.Method()
	if method == fiber.MethodPost || method == fiber.MethodPut {
		contentType := c.Get("Content-Type")
		if contentType != "" && !strings.HasPrefix(contentType, fiber.MIMEApplicationJSON) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(core.ErrorResponse{
				Error:   "unsupported media type",
				Code:    core.ErrInvalidContent,
				Details: "Content-Type must be application/json",
			})
		}
	}
	return c.Next()
}

// customErrorHandler provides consistent error responses
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	response := core.ErrorResponse{
		Error: "internal server error",
		Code:  core.ErrInternalError,
	}

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		response.Error = e.Message

		switch code {
		case fiber.StatusNotFound:
			response.Code = core.ErrGameNotFound
		case fiber.StatusBadRequest, fiber.StatusMethodNotAllowed:
			response.Code = core.ErrInvalidRequest
		case fiber.StatusTooManyRequests:
			response.Code = core.ErrRateLimitExceeded
		}
	}

	return c.Status(code).JSON(response)
}

// statusFor maps processor error codes to HTTP statuses.
func statusFor(code string) int {
	switch code {
	case core.ErrGameNotFound:
		return fiber.StatusNotFound
	case core.ErrUnauthorized, core.ErrNotYourTurn:
		return fiber.StatusForbidden
	case core.ErrResourceLimit, core.ErrEngineUnavailable:
		return fiber.StatusServiceUnavailable
	case core.ErrInternalError:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusBadRequest
	}
}

// respond writes a processor response with successStatus on success.
func respond(c *fiber.Ctx, resp processor.ProcessorResponse, successStatus int) error {
	if !resp.Success {
		return c.Status(statusFor(resp.Error.Code)).JSON(resp.Error)
	}
	if resp.Data == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Status(successStatus).JSON(resp.Data)
}

// gameIDParam returns the validated :gameId, or writes a 400 and ok=false.
func gameIDParam(c *fiber.Ctx) (string, bool) {
	gameID := c.Params("gameId")
	if !isValidUUID(gameID) {
		c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid game ID format",
			Code:    core.ErrInvalidRequest,
			Details: "game ID must be a valid UUID",
		})
		return "", false
	}
	return gameID, true
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}

// Health check endpoint with storage and engine status
func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	engineStatus := "ok"
	if !h.proc.EngineAvailable() {
		engineStatus = "unavailable"
	}
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"time":    time.Now().Unix(),
		"storage": h.svc.GetStorageHealth(),
		"engine":  engineStatus,
		"games":   h.svc.GameCount(),
	})
}

func (h *HTTPHandler) CreateGame(c *fiber.Ctx) error {
	req, err := validatedBody[core.CreateGameRequest](c)
	if err != nil {
		return err
	}

	cmd := processor.NewCreateGameCommand(*req).WithUser(userID(c))
	return respond(c, h.proc.Execute(cmd), fiber.StatusCreated)
}

// ConfigurePlayers updates player configuration mid-game
func (h *HTTPHandler) ConfigurePlayers(c *fiber.Ctx) error {
	gameID, ok := gameIDParam(c)
	if !ok {
		return nil
	}
	req, err := validatedBody[core.ConfigurePlayersRequest](c)
	if err != nil {
		return err
	}

	cmd := processor.NewConfigurePlayersCommand(gameID, *req).WithUser(userID(c))
	return respond(c, h.proc.Execute(cmd), fiber.StatusOK)
}

// GetGame returns the game; with wait=true it long-polls like WaitForChange.
func (h *HTTPHandler) GetGame(c *fiber.Ctx) error {
	if c.Query("wait") == "true" {
		return h.WaitForChange(c)
	}
	gameID, ok := gameIDParam(c)
	if !ok {
		return nil
	}
	return respond(c, h.proc.Execute(processor.NewGetGameCommand(gameID)), fiber.StatusOK)
}

// WaitForChange holds the request until the game's move count differs from
// moveCount, its state changes, or the wait times out, then returns the game.
func (h *HTTPHandler) WaitForChange(c *fiber.Ctx) error {
	gameID, ok := gameIDParam(c)
	if !ok {
		return nil
	}
	moveCount, err := strconv.Atoi(c.Query("moveCount", "-1"))
	if err != nil {
		moveCount = -1
	}

	ctx, cancel := context.WithCancel(c.UserContext())
	defer cancel()

	// register before reading the count so no change is missed in between
	notify := h.svc.RegisterWait(ctx, gameID, moveCount)

	current := -1
	if err := h.svc.ViewGame(gameID, func(g *game.Game) { current = len(g.Moves()) }); err != nil {
		return respond(c, h.proc.Execute(processor.NewGetGameCommand(gameID)), fiber.StatusOK)
	}

	if current == moveCount {
		<-notify
	}
	return respond(c, h.proc.Execute(processor.NewGetGameCommand(gameID)), fiber.StatusOK)
}

// MakeMove submits a move; "cccc" asks the engine and answers 202.
func (h *HTTPHandler) MakeMove(c *fiber.Ctx) error {
	gameID, ok := gameIDParam(c)
	if !ok {
		return nil
	}
	req, err := validatedBody[core.MoveRequest](c)
	if err != nil {
		return err
	}

	resp := h.proc.Execute(processor.NewMakeMoveCommand(gameID, *req).WithUser(userID(c)))
	status := fiber.StatusOK
	if resp.Pending {
		status = fiber.StatusAccepted
	}
	return respond(c, resp, status)
}

// UndoMove undoes one or more moves
func (h *HTTPHandler) UndoMove(c *fiber.Ctx) error {
	gameID, ok := gameIDParam(c)
	if !ok {
		return nil
	}
	req, err := validatedBody[core.UndoRequest](c)
	if err != nil {
		return err
	}

	cmd := processor.NewUndoMoveCommand(gameID, *req).WithUser(userID(c))
	return respond(c, h.proc.Execute(cmd), fiber.StatusOK)
}

func (h *HTTPHandler) DeleteGame(c *fiber.Ctx) error {
	gameID, ok := gameIDParam(c)
	if !ok {
		return nil
	}
	cmd := processor.NewDeleteGameCommand(gameID).WithUser(userID(c))
	return respond(c, h.proc.Execute(cmd), fiber.StatusNoContent)
}

// GetBoard returns ASCII representation of the board
func (h *HTTPHandler) GetBoard(c *fiber.Ctx) error {
	gameID, ok := gameIDParam(c)
	if !ok {
		return nil
	}
	return respond(c, h.proc.Execute(processor.NewGetBoardCommand(gameID)), fiber.StatusOK)
}

func (h *HTTPHandler) GetLegalMoves(c *fiber.Ctx) error {
	gameID, ok := gameIDParam(c)
	if !ok {
		return nil
	}
	return respond(c, h.proc.Execute(processor.NewGetLegalMovesCommand(gameID)), fiber.StatusOK)
}

// GetPGN returns the game as JSON, or as plain PGN text with ?format=text.
func (h *HTTPHandler) GetPGN(c *fiber.Ctx) error {
	gameID, ok := gameIDParam(c)
	if !ok {
		return nil
	}
	resp := h.proc.Execute(processor.NewGetPGNCommand(gameID))
	if resp.Success && c.Query("format") == "text" {
		if data, ok := resp.Data.(core.PGNResponse); ok {
			c.Set(fiber.HeaderContentType, "application/x-chess-pgn")
			return c.SendString(data.PGN)
		}
	}
	return respond(c, resp, fiber.StatusOK)
}
