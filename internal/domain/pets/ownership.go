package pets

import "context"

// OwnerOf expone el ownerUserID de una mascota.
// Se usa para evitar ciclos de imports (sharetokens/vaccinations/records -> pets).
func (s *Service) OwnerOf(ctx context.Context, petID string) (string, error) {
	p, err := s.GetByID(ctx, petID)
	if err != nil {
		return "", err
	}
	return p.OwnerUserID, nil
}

// IdentityOf devuelve solo los campos de identidad (link compartido).
func (s *Service) IdentityOf(ctx context.Context, petID string) (Identity, error) {
	p, err := s.GetByID(ctx, petID)
	if err != nil {
		return Identity{}, err
	}
	return p.Identity(), nil
}
