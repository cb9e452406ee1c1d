package gormstore

import (
	"context"

	"mse-engine/internal/engine"
)

func (a *Adapter) ResolveExamVersion(ctx context.Context, code string) (*engine.ExamVersion, error) {
	var m ExamVersionModel
	if err := a.db.WithContext(ctx).First(&m, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return m.toEngine()
}

func (a *Adapter) DefaultExamVersion(ctx context.Context) (*engine.ExamVersion, error) {
	var m ExamVersionModel
	if err := a.db.WithContext(ctx).First(&m, "is_default = ?", true).Error; err != nil {
		return nil, err
	}
	return m.toEngine()
}

func (a *Adapter) AxesForVersion(ctx context.Context, versionID string) ([]engine.Axis, error) {
	var rows []AxisModel
	if err := a.db.WithContext(ctx).Where("exam_version_id = ?", versionID).Order("display_order asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]engine.Axis, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toEngine())
	}
	return out, nil
}

func (a *Adapter) ItemsForVersion(ctx context.Context, versionID string) ([]*engine.DilemmaItem, error) {
	var rows []DilemmaItemModel
	if err := a.db.WithContext(ctx).Where("exam_version_id = ?", versionID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*engine.DilemmaItem, 0, len(rows))
	for _, m := range rows {
		item, err := m.toEngine()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (a *Adapter) ConsistencyGroupsForVersion(ctx context.Context, versionID string) ([]*engine.ConsistencyGroup, error) {
	var rows []ConsistencyGroupModel
	if err := a.db.WithContext(ctx).Where("exam_version_id = ?", versionID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*engine.ConsistencyGroup, 0, len(rows))
	for _, m := range rows {
		g, err := m.toEngine()
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}
