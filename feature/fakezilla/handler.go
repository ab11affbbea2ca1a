package fakezilla

import (
	"bytes"
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"bugsync/core/logger"
	"bugsync/core/middleware/auth"
	"bugsync/core/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler serves the tracker REST API.
type Handler struct {
	service *Service
	apiKey  string
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, apiKey: service.cfg.ApiKey}
}

// RegisterRoutes registers the REST routes on router, usually the /rest group.
func (h *Handler) RegisterRoutes(router fiber.Router) {
	protect := auth.New(auth.Config{
		ApiKey:     h.apiKey,
		ValidToken: h.service.ValidToken,
		Denied: func(c *fiber.Ctx) error {
			return fail(http.StatusUnauthorized, CodeLoginRequired, "You must log in before using this part of Bugzilla.")
		},
	})

	router.Get("/login", h.HandleLogin)
	router.Get("/logout", h.HandleLogout)
	router.Get("/valid_login", h.HandleValidLogin)
	router.Get("/user/:id", h.HandleUser)

	router.Put("/bug/comment/:id/tags", protect, h.HandleUpdateCommentTags)
	router.Get("/bug/attachment/:id", h.HandleGetAttachment)
	router.Put("/bug/attachment/:id", protect, h.HandleUpdateAttachment)

	router.Get("/bug", h.HandleSearch)
	router.Post("/bug", protect, h.HandleCreateBug)
	router.Get("/bug/:id", h.HandleGetBug)
	router.Put("/bug/:id", protect, h.HandleUpdateBug)
	router.Get("/bug/:id/comment", h.HandleComments)
	router.Post("/bug/:id/comment", protect, h.HandleAddComment)
	router.Get("/bug/:id/attachment", h.HandleAttachments)
	router.Post("/bug/:id/attachment", protect, h.HandleCreateAttachment)
}

// HandleLogin opens a session.
// @Summary Log in
// @Description Exchanges the X-Bugzilla-Login and X-Bugzilla-Password headers (or the login and password query parameters) for a session token.
// @Tags user
// @Produce json
// @Param X-Bugzilla-Login header string false "Login"
// @Param X-Bugzilla-Password header string false "Password"
// @Success 200 {object} map[string]interface{} "id and token"
// @Failure 401 {object} map[string]interface{} "Invalid credentials"
// @Router /rest/login [get]
func (h *Handler) HandleLogin(c *fiber.Ctx) error {
	login := firstNonEmpty(c.Get("X-Bugzilla-Login"), c.Query("login"))
	password := firstNonEmpty(c.Get("X-Bugzilla-Password"), c.Query("password"))
	id, token, err := h.service.Login(login, password)
	if err != nil {
		logger.WithRayID(h.service.logger, c).Warn("Login rejected", zap.String("login", login))
		return err
	}
	return c.JSON(fiber.Map{"id": id, "token": token})
}

// HandleLogout closes the session of the X-Bugzilla-Token header.
// @Summary Log out
// @Tags user
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /rest/logout [get]
func (h *Handler) HandleLogout(c *fiber.Ctx) error {
	h.service.Logout(firstNonEmpty(c.Get(auth.HeaderToken), c.Query("token")))
	return c.JSON(fiber.Map{})
}

// HandleValidLogin checks an API key against a login.
// @Summary Validate login
// @Tags user
// @Produce json
// @Param login query string true "Login"
// @Success 200 {boolean} boolean
// @Router /rest/valid_login [get]
func (h *Handler) HandleValidLogin(c *fiber.Ctx) error {
	key := firstNonEmpty(c.Get(auth.HeaderAPIKey), c.Query("api_key"))
	return c.JSON(h.service.ValidLogin(c.Query("login"), key))
}

// HandleUser returns a user by id or login.
// @Summary Get user
// @Tags user
// @Produce json
// @Param id path string true "User id or login"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /rest/user/{id} [get]
func (h *Handler) HandleUser(c *fiber.Ctx) error {
	u, err := h.service.User(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"users": []any{u}})
}

// HandleSearch searches bugs.
// @Summary Search bugs
// @Tags bug
// @Produce json
// @Param product query string false "Product"
// @Param component query string false "Component"
// @Param keywords query string false "Keywords, all required"
// @Param short_desc query string false "Summary words"
// @Param include_fields query string false "Fields to return"
// @Success 200 {object} map[string]interface{}
// @Router /rest/bug [get]
func (h *Handler) HandleSearch(c *fiber.Ctx) error {
	ids, err := parseIDs(append(queryList(c, "id"), queryList(c, "bug_id")...))
	if err != nil {
		return err
	}
	f := Filter{
		IDs:            ids,
		Product:        queryList(c, "product"),
		Component:      queryList(c, "component"),
		Status:         queryList(c, "status"),
		Resolution:     queryList(c, "resolution"),
		AssignedTo:     queryList(c, "assigned_to"),
		Keywords:       queryList(c, "keywords"),
		ShortDesc:      queryList(c, "short_desc"),
		ShortDescType:  c.Query("short_desc_type"),
		Whiteboard:     queryList(c, "whiteboard"),
		WhiteboardType: c.Query("whiteboard_type"),
		ChField:        queryList(c, "chfield"),
		ChFieldValue:   c.Query("chfieldvalue"),
		ChFieldFrom:    c.Query("chfieldfrom"),
		ChFieldTo:      c.Query("chfieldto"),
	}
	docs, err := h.service.SearchBugs(c.UserContext(), f)
	if err != nil {
		return err
	}
	fields := queryList(c, "include_fields")
	bugs := make([]any, 0, len(docs))
	for _, doc := range docs {
		bugs = append(bugs, pickFields(doc, fields))
	}
	return c.JSON(fiber.Map{"bugs": bugs})
}

// HandleGetBug returns one bug.
// @Summary Get bug
// @Tags bug
// @Produce json
// @Param id path int true "Bug id"
// @Param include_fields query string false "Fields to return"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /rest/bug/{id} [get]
func (h *Handler) HandleGetBug(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	doc, err := h.service.Bug(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"bugs": []any{pickFields(doc, queryList(c, "include_fields"))}, "faults": []any{}})
}

// HandleCreateBug files a bug.
// @Summary Create bug
// @Tags bug
// @Accept json
// @Produce json
// @Param bug body map[string]interface{} true "Bug fields"
// @Success 200 {object} map[string]interface{} "id"
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /rest/bug [post]
func (h *Handler) HandleCreateBug(c *fiber.Ctx) error {
	body, err := decodeBody(c)
	if err != nil {
		return err
	}
	id, err := h.service.CreateBug(c.UserContext(), body)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"id": id})
}

// HandleUpdateBug changes a bug.
// @Summary Update bug
// @Tags bug
// @Accept json
// @Produce json
// @Param id path int true "Bug id"
// @Param changes body map[string]interface{} true "Changed fields"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /rest/bug/{id} [put]
func (h *Handler) HandleUpdateBug(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	body, err := decodeBody(c)
	if err != nil {
		return err
	}
	result, err := h.service.UpdateBug(c.UserContext(), id, body)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"bugs": []any{result}})
}

// HandleComments lists the comments of a bug.
// @Summary List comments
// @Tags comment
// @Produce json
// @Param id path int true "Bug id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /rest/bug/{id}/comment [get]
func (h *Handler) HandleComments(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	docs, err := h.service.Comments(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"bugs":     fiber.Map{strconv.FormatInt(id, 10): fiber.Map{"comments": docs}},
		"comments": fiber.Map{},
	})
}

// HandleAddComment appends a comment to a bug.
// @Summary Add comment
// @Tags comment
// @Accept json
// @Produce json
// @Param id path int true "Bug id"
// @Param comment body map[string]interface{} true "comment and is_private"
// @Success 200 {object} map[string]interface{} "id"
// @Router /rest/bug/{id}/comment [post]
func (h *Handler) HandleAddComment(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	body, err := decodeBody(c)
	if err != nil {
		return err
	}
	private, _ := body["is_private"].(bool)
	commentID, err := h.service.AddComment(c.UserContext(), id, utils.ToString(body["comment"]), private)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"id": commentID})
}

// HandleUpdateCommentTags adds and removes comment tags.
// @Summary Update comment tags
// @Tags comment
// @Accept json
// @Produce json
// @Param id path int true "Comment id"
// @Param tags body map[string]interface{} true "add and remove lists"
// @Success 200 {array} string
// @Router /rest/bug/comment/{id}/tags [put]
func (h *Handler) HandleUpdateCommentTags(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	body, err := decodeBody(c)
	if err != nil {
		return err
	}
	tags, err := h.service.UpdateCommentTags(c.UserContext(), id, body)
	if err != nil {
		return err
	}
	return c.JSON(tags)
}

// HandleAttachments lists the attachments of a bug.
// @Summary List attachments
// @Tags attachment
// @Produce json
// @Param id path int true "Bug id"
// @Success 200 {object} map[string]interface{}
// @Router /rest/bug/{id}/attachment [get]
func (h *Handler) HandleAttachments(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	docs, err := h.service.Attachments(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"bugs":        fiber.Map{strconv.FormatInt(id, 10): docs},
		"attachments": fiber.Map{},
	})
}

// HandleGetAttachment returns one attachment.
// @Summary Get attachment
// @Tags attachment
// @Produce json
// @Param id path int true "Attachment id"
// @Success 200 {object} map[string]interface{}
// @Router /rest/bug/attachment/{id} [get]
func (h *Handler) HandleGetAttachment(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	doc, err := h.service.Attachment(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"bugs":        fiber.Map{},
		"attachments": fiber.Map{strconv.FormatInt(id, 10): doc},
	})
}

// HandleCreateAttachment uploads an attachment.
// @Summary Create attachment
// @Tags attachment
// @Accept json
// @Produce json
// @Param id path int true "Bug id"
// @Param attachment body map[string]interface{} true "Attachment fields, data in base64"
// @Success 200 {object} map[string]interface{} "ids"
// @Router /rest/bug/{id}/attachment [post]
func (h *Handler) HandleCreateAttachment(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	body, err := decodeBody(c)
	if err != nil {
		return err
	}
	ids, err := h.service.CreateAttachment(c.UserContext(), id, body)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ids": ids})
}

// HandleUpdateAttachment changes an attachment.
// @Summary Update attachment
// @Tags attachment
// @Accept json
// @Produce json
// @Param id path int true "Attachment id"
// @Param changes body map[string]interface{} true "Changed fields"
// @Success 200 {object} map[string]interface{}
// @Router /rest/bug/attachment/{id} [put]
func (h *Handler) HandleUpdateAttachment(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	body, err := decodeBody(c)
	if err != nil {
		return err
	}
	result, err := h.service.UpdateAttachment(c.UserContext(), id, body)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"attachments": []any{result}})
}

// HandleHealth compares the database schema with the models.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} SchemaReport
// @Failure 503 {object} SchemaReport
// @Router /health [get]
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	report, err := h.service.Health()
	if err != nil {
		return err
	}
	if !report.Matched {
		return c.Status(http.StatusServiceUnavailable).JSON(report)
	}
	return c.JSON(report)
}

func paramID(c *fiber.Ctx) (int64, error) {
	raw := c.Params("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fail(http.StatusBadRequest, CodeInvalidBugID, "'%s' is not a valid id.", raw)
	}
	return id, nil
}

// queryList collects a query parameter given repeatedly or comma separated.
func queryList(c *fiber.Ctx, key string) []string {
	var out []string
	for _, raw := range c.Context().QueryArgs().PeekMulti(key) {
		for _, v := range strings.Split(string(raw), ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func decodeBody(c *fiber.Ctx) (map[string]any, error) {
	raw := bytes.TrimSpace(c.Body())
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil, fail(http.StatusBadRequest, CodeInvalidValue, "invalid JSON body: %v", err)
	}
	if body == nil {
		return map[string]any{}, nil
	}
	return utils.Normalize(body).(map[string]any), nil
}

// pickFields restricts doc to fields. The id is always kept.
func pickFields(doc map[string]any, fields []string) map[string]any {
	if len(fields) == 0 || slices.Contains(fields, "_all") || slices.Contains(fields, "_default") {
		return doc
	}
	out := map[string]any{"id": doc["id"]}
	for _, f := range fields {
		if v, ok := doc[f]; ok {
			out[f] = v
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
