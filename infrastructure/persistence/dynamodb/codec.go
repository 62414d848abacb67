package dynamodb

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/frankkinuthian/lms-v3/domain/model"
	"github.com/frankkinuthian/lms-v3/pkg/errors"
)

// Item is the generic attribute bag persisted at a key.
type Item = map[string]types.AttributeValue

// Reserved attribute names owned by the access layer.
const (
	attrPK            = "PK"
	attrSK            = "SK"
	attrGSI1PK        = "GSI1PK"
	attrGSI1SK        = "GSI1SK"
	attrEntityType    = "EntityType"
	attrSchemaVersion = "SchemaVersion"
	attrCreatedAt     = "CreatedAt"
	attrUpdatedAt     = "UpdatedAt"
)

const timeLayout = time.RFC3339Nano

// itemMeta carries the attributes every physical item shares.
type itemMeta struct {
	PK            string `dynamodbav:"PK"`
	SK            string `dynamodbav:"SK"`
	GSI1PK        string `dynamodbav:"GSI1PK,omitempty"`
	GSI1SK        string `dynamodbav:"GSI1SK,omitempty"`
	EntityType    string `dynamodbav:"EntityType"`
	SchemaVersion int    `dynamodbav:"SchemaVersion"`
	CreatedAt     string `dynamodbav:"CreatedAt"`
	UpdatedAt     string `dynamodbav:"UpdatedAt"`
}

type userItem struct {
	itemMeta
	UserID         string `dynamodbav:"UserID"`
	Email          string `dynamodbav:"Email"`
	FullName       string `dynamodbav:"FullName"`
	Role           string `dynamodbav:"Role"`
	HashedPassword string `dynamodbav:"HashedPassword"`
	IsActive       bool   `dynamodbav:"IsActive"`
}

type emailGuardItem struct {
	itemMeta
	Email  string `dynamodbav:"Email"`
	UserID string `dynamodbav:"UserID"`
}

type courseItem struct {
	itemMeta
	CourseID        string  `dynamodbav:"CourseID"`
	InstructorID    string  `dynamodbav:"InstructorID"`
	CategoryID      string  `dynamodbav:"CategoryID"`
	Title           string  `dynamodbav:"Title"`
	Description     string  `dynamodbav:"Description"`
	Price           float64 `dynamodbav:"Price"`
	IsPublished     bool    `dynamodbav:"IsPublished"`
	EnrollmentCount int     `dynamodbav:"EnrollmentCount"`
}

type lessonItem struct {
	itemMeta
	LessonID        string `dynamodbav:"LessonID"`
	CourseID        string `dynamodbav:"CourseID"`
	Title           string `dynamodbav:"Title"`
	OrderIndex      int    `dynamodbav:"OrderIndex"`
	DurationSeconds int    `dynamodbav:"DurationSeconds"`
	VideoURL        string `dynamodbav:"VideoURL"`
}

type enrollmentItem struct {
	itemMeta
	UserID             string  `dynamodbav:"UserID"`
	CourseID           string  `dynamodbav:"CourseID"`
	TransactionID      string  `dynamodbav:"TransactionID"`
	ProgressPercentage float64 `dynamodbav:"ProgressPercentage"`
	IsCompleted        bool    `dynamodbav:"IsCompleted"`
}

type progressItem struct {
	itemMeta
	UserID           string `dynamodbav:"UserID"`
	LessonID         string `dynamodbav:"LessonID"`
	CourseID         string `dynamodbav:"CourseID"`
	TimeSpentSeconds int    `dynamodbav:"TimeSpentSeconds"`
	IsCompleted      bool   `dynamodbav:"IsCompleted"`
}

type transactionItem struct {
	itemMeta
	TransactionID string  `dynamodbav:"TransactionID"`
	UserID        string  `dynamodbav:"UserID"`
	CourseID      string  `dynamodbav:"CourseID"`
	Amount        float64 `dynamodbav:"Amount"`
	Status        string  `dynamodbav:"Status"`
}

type categoryItem struct {
	itemMeta
	CategoryID       string `dynamodbav:"CategoryID"`
	Name             string `dynamodbav:"Name"`
	ParentCategoryID string `dynamodbav:"ParentCategoryID"`
}

// Touch stamps the write timestamps on an entity: CreatedAt once, UpdatedAt
// on every write. The executor calls this before encoding so Encode itself
// stays a pure function and the round-trip law holds exactly.
func Touch(e model.Entity, now time.Time) {
	now = now.UTC()
	switch v := e.(type) {
	case *model.User:
		if v.CreatedAt.IsZero() {
			v.CreatedAt = now
		}
		v.UpdatedAt = now
	case *model.EmailGuard:
		if v.CreatedAt.IsZero() {
			v.CreatedAt = now
		}
		v.UpdatedAt = now
	case *model.Course:
		if v.CreatedAt.IsZero() {
			v.CreatedAt = now
		}
		v.UpdatedAt = now
	case *model.Lesson:
		if v.CreatedAt.IsZero() {
			v.CreatedAt = now
		}
		v.UpdatedAt = now
	case *model.Enrollment:
		if v.CreatedAt.IsZero() {
			v.CreatedAt = now
		}
		v.UpdatedAt = now
	case *model.LessonProgress:
		if v.CreatedAt.IsZero() {
			v.CreatedAt = now
		}
		v.UpdatedAt = now
	case *model.Transaction:
		if v.CreatedAt.IsZero() {
			v.CreatedAt = now
		}
		v.UpdatedAt = now
	case *model.Category:
		if v.CreatedAt.IsZero() {
			v.CreatedAt = now
		}
		v.UpdatedAt = now
	}
}

// Encode serializes a typed entity into the attribute bag persisted at its
// key. Unknown attributes carried on the entity are merged back in untouched
// so a write never drops fields this codec did not originate.
func Encode(e model.Entity) (Item, error) {
	key, idx, err := KeyFor(e)
	if err != nil {
		return nil, err
	}

	meta := itemMeta{
		PK:            key.PK,
		SK:            key.SK,
		GSI1PK:        idx.GSI1PK,
		GSI1SK:        idx.GSI1SK,
		EntityType:    string(e.Type()),
		SchemaVersion: model.SchemaVersion,
	}

	var (
		src   interface{}
		extra map[string]interface{}
	)

	switch v := e.(type) {
	case *model.User:
		meta.CreatedAt = v.CreatedAt.Format(timeLayout)
		meta.UpdatedAt = v.UpdatedAt.Format(timeLayout)
		src = userItem{
			itemMeta:       meta,
			UserID:         v.UserID,
			Email:          v.Email,
			FullName:       v.FullName,
			Role:           string(v.Role),
			HashedPassword: v.HashedPassword,
			IsActive:       v.IsActive,
		}
		extra = v.Extra
	case *model.EmailGuard:
		meta.CreatedAt = v.CreatedAt.Format(timeLayout)
		meta.UpdatedAt = v.UpdatedAt.Format(timeLayout)
		src = emailGuardItem{
			itemMeta: meta,
			Email:    v.Email,
			UserID:   v.UserID,
		}
		extra = v.Extra
	case *model.Course:
		meta.CreatedAt = v.CreatedAt.Format(timeLayout)
		meta.UpdatedAt = v.UpdatedAt.Format(timeLayout)
		src = courseItem{
			itemMeta:        meta,
			CourseID:        v.CourseID,
			InstructorID:    v.InstructorID,
			CategoryID:      v.CategoryID,
			Title:           v.Title,
			Description:     v.Description,
			Price:           v.Price,
			IsPublished:     v.IsPublished,
			EnrollmentCount: v.EnrollmentCount,
		}
		extra = v.Extra
	case *model.Lesson:
		meta.CreatedAt = v.CreatedAt.Format(timeLayout)
		meta.UpdatedAt = v.UpdatedAt.Format(timeLayout)
		src = lessonItem{
			itemMeta:        meta,
			LessonID:        v.LessonID,
			CourseID:        v.CourseID,
			Title:           v.Title,
			OrderIndex:      v.OrderIndex,
			DurationSeconds: v.DurationSeconds,
			VideoURL:        v.VideoURL,
		}
		extra = v.Extra
	case *model.Enrollment:
		meta.CreatedAt = v.CreatedAt.Format(timeLayout)
		meta.UpdatedAt = v.UpdatedAt.Format(timeLayout)
		src = enrollmentItem{
			itemMeta:           meta,
			UserID:             v.UserID,
			CourseID:           v.CourseID,
			TransactionID:      v.TransactionID,
			ProgressPercentage: v.ProgressPercentage,
			IsCompleted:        v.IsCompleted,
		}
		extra = v.Extra
	case *model.LessonProgress:
		meta.CreatedAt = v.CreatedAt.Format(timeLayout)
		meta.UpdatedAt = v.UpdatedAt.Format(timeLayout)
		src = progressItem{
			itemMeta:         meta,
			UserID:           v.UserID,
			LessonID:         v.LessonID,
			CourseID:         v.CourseID,
			TimeSpentSeconds: v.TimeSpentSeconds,
			IsCompleted:      v.IsCompleted,
		}
		extra = v.Extra
	case *model.Transaction:
		meta.CreatedAt = v.CreatedAt.Format(timeLayout)
		meta.UpdatedAt = v.UpdatedAt.Format(timeLayout)
		src = transactionItem{
			itemMeta:      meta,
			TransactionID: v.TransactionID,
			UserID:        v.UserID,
			CourseID:      v.CourseID,
			Amount:        v.Amount,
			Status:        string(v.Status),
		}
		extra = v.Extra
	case *model.Category:
		meta.CreatedAt = v.CreatedAt.Format(timeLayout)
		meta.UpdatedAt = v.UpdatedAt.Format(timeLayout)
		src = categoryItem{
			itemMeta:         meta,
			CategoryID:       v.CategoryID,
			Name:             v.Name,
			ParentCategoryID: v.ParentCategoryID,
		}
		extra = v.Extra
	default:
		return nil, errors.NewUnknownEntityTypeError(string(e.Type()))
	}

	item, err := attributevalue.MarshalMap(src)
	if err != nil {
		return nil, errors.NewMalformedItemError(fmt.Sprintf("failed to marshal %s item", e.Type())).WithCause(err)
	}

	for k, v := range extra {
		if _, owned := item[k]; owned {
			continue
		}
		av, err := attributevalue.Marshal(v)
		if err != nil {
			return nil, errors.NewMalformedItemError(fmt.Sprintf("failed to marshal extra attribute %q", k)).WithCause(err)
		}
		item[k] = av
	}

	return item, nil
}

// Decode materializes a typed entity from an attribute bag. Attributes this
// codec does not recognize are preserved on the entity's Extra map so they
// survive the next write.
func Decode(item Item) (model.Entity, error) {
	tagAttr, ok := item[attrEntityType]
	if !ok {
		return nil, errors.NewUnknownEntityTypeError("")
	}
	tag, ok := tagAttr.(*types.AttributeValueMemberS)
	if !ok {
		return nil, errors.NewUnknownEntityTypeError("")
	}

	switch model.EntityType(tag.Value) {
	case model.EntityTypeUser:
		var rec userItem
		if err := unmarshalItem(item, &rec, tag.Value); err != nil {
			return nil, err
		}
		createdAt, updatedAt, err := rec.itemMeta.timestamps(tag.Value)
		if err != nil {
			return nil, err
		}
		if rec.UserID == "" {
			return nil, missingField(tag.Value, "UserID")
		}
		if rec.Email == "" {
			return nil, missingField(tag.Value, "Email")
		}
		if !model.Role(rec.Role).IsValid() {
			return nil, errors.NewMalformedItemError(fmt.Sprintf("user item has unknown role %q", rec.Role))
		}
		u := &model.User{
			UserID:         rec.UserID,
			Email:          rec.Email,
			FullName:       rec.FullName,
			Role:           model.Role(rec.Role),
			HashedPassword: rec.HashedPassword,
			IsActive:       rec.IsActive,
			CreatedAt:      createdAt,
			UpdatedAt:      updatedAt,
		}
		u.Extra, err = extraAttributes(item, rec)
		return u, err

	case model.EntityTypeEmailGuard:
		var rec emailGuardItem
		if err := unmarshalItem(item, &rec, tag.Value); err != nil {
			return nil, err
		}
		createdAt, updatedAt, err := rec.itemMeta.timestamps(tag.Value)
		if err != nil {
			return nil, err
		}
		if rec.Email == "" {
			return nil, missingField(tag.Value, "Email")
		}
		if rec.UserID == "" {
			return nil, missingField(tag.Value, "UserID")
		}
		g := &model.EmailGuard{
			Email:     rec.Email,
			UserID:    rec.UserID,
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		}
		g.Extra, err = extraAttributes(item, rec)
		return g, err

	case model.EntityTypeCourse:
		var rec courseItem
		if err := unmarshalItem(item, &rec, tag.Value); err != nil {
			return nil, err
		}
		createdAt, updatedAt, err := rec.itemMeta.timestamps(tag.Value)
		if err != nil {
			return nil, err
		}
		if rec.CourseID == "" {
			return nil, missingField(tag.Value, "CourseID")
		}
		if rec.Price < 0 {
			return nil, errors.NewMalformedItemError("course item has a negative price")
		}
		c := &model.Course{
			CourseID:        rec.CourseID,
			InstructorID:    rec.InstructorID,
			CategoryID:      rec.CategoryID,
			Title:           rec.Title,
			Description:     rec.Description,
			Price:           rec.Price,
			IsPublished:     rec.IsPublished,
			EnrollmentCount: rec.EnrollmentCount,
			CreatedAt:       createdAt,
			UpdatedAt:       updatedAt,
		}
		c.Extra, err = extraAttributes(item, rec)
		return c, err

	case model.EntityTypeLesson:
		var rec lessonItem
		if err := unmarshalItem(item, &rec, tag.Value); err != nil {
			return nil, err
		}
		createdAt, updatedAt, err := rec.itemMeta.timestamps(tag.Value)
		if err != nil {
			return nil, err
		}
		if rec.LessonID == "" {
			return nil, missingField(tag.Value, "LessonID")
		}
		if rec.CourseID == "" {
			return nil, missingField(tag.Value, "CourseID")
		}
		l := &model.Lesson{
			LessonID:        rec.LessonID,
			CourseID:        rec.CourseID,
			Title:           rec.Title,
			OrderIndex:      rec.OrderIndex,
			DurationSeconds: rec.DurationSeconds,
			VideoURL:        rec.VideoURL,
			CreatedAt:       createdAt,
			UpdatedAt:       updatedAt,
		}
		l.Extra, err = extraAttributes(item, rec)
		return l, err

	case model.EntityTypeEnrollment:
		var rec enrollmentItem
		if err := unmarshalItem(item, &rec, tag.Value); err != nil {
			return nil, err
		}
		createdAt, updatedAt, err := rec.itemMeta.timestamps(tag.Value)
		if err != nil {
			return nil, err
		}
		if rec.UserID == "" {
			return nil, missingField(tag.Value, "UserID")
		}
		if rec.CourseID == "" {
			return nil, missingField(tag.Value, "CourseID")
		}
		if rec.ProgressPercentage < 0 || rec.ProgressPercentage > 100 {
			return nil, errors.NewMalformedItemError("enrollment item progress is out of range")
		}
		en := &model.Enrollment{
			UserID:             rec.UserID,
			CourseID:           rec.CourseID,
			TransactionID:      rec.TransactionID,
			ProgressPercentage: rec.ProgressPercentage,
			IsCompleted:        rec.IsCompleted,
			CreatedAt:          createdAt,
			UpdatedAt:          updatedAt,
		}
		en.Extra, err = extraAttributes(item, rec)
		return en, err

	case model.EntityTypeLessonProgress:
		var rec progressItem
		if err := unmarshalItem(item, &rec, tag.Value); err != nil {
			return nil, err
		}
		createdAt, updatedAt, err := rec.itemMeta.timestamps(tag.Value)
		if err != nil {
			return nil, err
		}
		if rec.UserID == "" {
			return nil, missingField(tag.Value, "UserID")
		}
		if rec.LessonID == "" {
			return nil, missingField(tag.Value, "LessonID")
		}
		if rec.TimeSpentSeconds < 0 {
			return nil, errors.NewMalformedItemError("lesson progress item has negative timeSpent")
		}
		p := &model.LessonProgress{
			UserID:           rec.UserID,
			LessonID:         rec.LessonID,
			CourseID:         rec.CourseID,
			TimeSpentSeconds: rec.TimeSpentSeconds,
			IsCompleted:      rec.IsCompleted,
			CreatedAt:        createdAt,
			UpdatedAt:        updatedAt,
		}
		p.Extra, err = extraAttributes(item, rec)
		return p, err

	case model.EntityTypeTransaction:
		var rec transactionItem
		if err := unmarshalItem(item, &rec, tag.Value); err != nil {
			return nil, err
		}
		createdAt, updatedAt, err := rec.itemMeta.timestamps(tag.Value)
		if err != nil {
			return nil, err
		}
		if rec.TransactionID == "" {
			return nil, missingField(tag.Value, "TransactionID")
		}
		if !model.TransactionStatus(rec.Status).IsValid() {
			return nil, errors.NewMalformedItemError(fmt.Sprintf("transaction item has unknown status %q", rec.Status))
		}
		if rec.Amount < 0 {
			return nil, errors.NewMalformedItemError("transaction item has a negative amount")
		}
		t := &model.Transaction{
			TransactionID: rec.TransactionID,
			UserID:        rec.UserID,
			CourseID:      rec.CourseID,
			Amount:        rec.Amount,
			Status:        model.TransactionStatus(rec.Status),
			CreatedAt:     createdAt,
			UpdatedAt:     updatedAt,
		}
		t.Extra, err = extraAttributes(item, rec)
		return t, err

	case model.EntityTypeCategory:
		var rec categoryItem
		if err := unmarshalItem(item, &rec, tag.Value); err != nil {
			return nil, err
		}
		createdAt, updatedAt, err := rec.itemMeta.timestamps(tag.Value)
		if err != nil {
			return nil, err
		}
		if rec.CategoryID == "" {
			return nil, missingField(tag.Value, "CategoryID")
		}
		c := &model.Category{
			CategoryID:       rec.CategoryID,
			Name:             rec.Name,
			ParentCategoryID: rec.ParentCategoryID,
			CreatedAt:        createdAt,
			UpdatedAt:        updatedAt,
		}
		c.Extra, err = extraAttributes(item, rec)
		return c, err

	default:
		return nil, errors.NewUnknownEntityTypeError(tag.Value)
	}
}

func unmarshalItem(item Item, out interface{}, tag string) error {
	if err := attributevalue.UnmarshalMap(item, out); err != nil {
		return errors.NewMalformedItemError(fmt.Sprintf("failed to unmarshal %s item", tag)).WithCause(err)
	}
	return nil
}

func missingField(tag, field string) error {
	return errors.NewMalformedItemError(fmt.Sprintf("%s item is missing required field %s", tag, field))
}

// timestamps parses the write timestamps, rejecting items where either is
// absent or not RFC3339.
func (m itemMeta) timestamps(tag string) (time.Time, time.Time, error) {
	createdAt, err := time.Parse(timeLayout, m.CreatedAt)
	if err != nil {
		return time.Time{}, time.Time{}, errors.NewMalformedItemError(fmt.Sprintf("%s item has an invalid CreatedAt", tag)).WithCause(err)
	}
	updatedAt, err := time.Parse(timeLayout, m.UpdatedAt)
	if err != nil {
		return time.Time{}, time.Time{}, errors.NewMalformedItemError(fmt.Sprintf("%s item has an invalid UpdatedAt", tag)).WithCause(err)
	}
	return createdAt.UTC(), updatedAt.UTC(), nil
}

// extraAttributes collects the attributes of item that the typed record does
// not own, decoded opaquely so Encode can write them back unchanged.
func extraAttributes(item Item, rec interface{}) (map[string]interface{}, error) {
	known, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return nil, errors.NewMalformedItemError("failed to compute known attribute set").WithCause(err)
	}

	var extra map[string]interface{}
	for k, av := range item {
		if _, owned := known[k]; owned {
			continue
		}
		// GSI attributes may be absent from the re-marshalled record when
		// empty; they are still owned by the layer, never passthrough data.
		if k == attrGSI1PK || k == attrGSI1SK {
			continue
		}
		var v interface{}
		if err := attributevalue.Unmarshal(av, &v); err != nil {
			return nil, errors.NewMalformedItemError(fmt.Sprintf("failed to decode extra attribute %q", k)).WithCause(err)
		}
		if extra == nil {
			extra = make(map[string]interface{})
		}
		extra[k] = v
	}
	return extra, nil
}
